package constants

type ContextKey string

const (
	PoolKey   ContextKey = "pool"
	TxKey     ContextKey = "tx"
	UserKey   ContextKey = "user"
	ParamsKey ContextKey = "params"
	LoggerKey ContextKey = "logger"
)
