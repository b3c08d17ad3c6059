package rpcapi

import (
	"encoding/json"
	"net/http"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/metrics/exp"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"github.com/tos-network/dumpglory/game"
	"golang.org/x/time/rate"
)

// Namespace is the JSON-RPC namespace of the game API.
const Namespace = "dump"

// Config controls the HTTP endpoint.
type Config struct {
	Host        string   `toml:",omitempty"`
	Port        int      `toml:",omitempty"`
	CorsOrigins []string `toml:",omitempty"`
	RateLimit   float64  `toml:",omitempty"` // requests per second, 0 disables
	RateBurst   int      `toml:",omitempty"`
	CacheSize   int      `toml:",omitempty"` // finalized leaderboards kept in memory
}

// DefaultConfig is the default HTTP endpoint configuration.
var DefaultConfig = Config{
	Host:        "127.0.0.1",
	Port:        8645,
	CorsOrigins: []string{"*"},
	RateLimit:   50,
	RateBurst:   100,
	CacheSize:   32,
}

var rejectedMeter = metrics.NewRegisteredMeter("rpc/ratelimited", nil)

// NewServer returns a JSON-RPC server with the game API registered.
func NewServer(engine *game.Engine, cacheSize int) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(Namespace, NewGameAPI(engine, cacheSize)); err != nil {
		return nil, err
	}
	return srv, nil
}

// NewHandler builds the HTTP surface: JSON-RPC on POST / and over a websocket
// on /ws, a health probe and the metrics dump.
func NewHandler(engine *game.Engine, cfg Config) (http.Handler, *rpc.Server, error) {
	srv, err := NewServer(engine, cfg.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	var rpcHandler http.Handler = srv
	if cfg.RateLimit > 0 {
		rpcHandler = rateLimit(rpcHandler, rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst))
	}
	router := httprouter.New()
	router.Handler(http.MethodPost, "/", rpcHandler)
	router.Handler(http.MethodGet, "/ws", srv.WebsocketHandler(cfg.CorsOrigins))
	router.GET("/health", health(engine))
	router.Handler(http.MethodGet, "/debug/metrics", exp.ExpHandler(metrics.DefaultRegistry))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CorsOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(router), srv, nil
}

func rateLimit(next http.Handler, limiter *rate.Limiter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			rejectedMeter.Mark(1)
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Epoch  uint64 `json:"epoch"`
	Phase  string `json:"phase"`
	Root   string `json:"root"`
}

func health(engine *game.Engine) httprouter.Handle {
	return func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		s := engine.Status()
		w.Header().Set("Content-Type", "application/json")
		err := json.NewEncoder(w).Encode(healthResponse{Status: "ok", Epoch: s.Epoch, Phase: s.Phase, Root: s.Root.Hex()})
		if err != nil {
			log.Debug("Failed to write health response", "err", err)
		}
	}
}
