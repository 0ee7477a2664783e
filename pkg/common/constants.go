package common

const (
	// RedisKeyPrediction prefixes cached prediction responses:
	// prediction:{symbol}:{start}:{end}
	RedisKeyPrediction = "prediction"

	DateLayout = "2006-01-02"
)
