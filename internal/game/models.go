package game

const GameName = "Fleets!"

type Status struct {
	Game          string `json:"game"`
	Block         int64  `json:"block"`
	BlockDuration string `json:"block_duration"`
	PlayerCount   int    `json:"player_count"`
}

type PriceQuote struct {
	Level int64 `json:"level"`
	Price int64 `json:"price"`
}

type BlockInfo struct {
	Block int64 `json:"block"`
}
