package board

import (
	"time"

	"github.com/google/uuid"
)

type uuidGen struct{}

func NewIdGen() UniqueIdGenerator {
	return uuidGen{}
}

func (uuidGen) Generate() string {
	return uuid.NewString()
}

type tickerGen struct{}

func NewTickerGen() PeriodicTickerChannelCreator {
	return tickerGen{}
}

func (tickerGen) Create(duration time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(duration)
	return t.C, t.Stop
}
