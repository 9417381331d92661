package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/matst80/slask-crossfilter/pkg/common"
	"github.com/matst80/slask-crossfilter/pkg/crossfilter"
	"github.com/matst80/slask-crossfilter/pkg/messaging"
	"github.com/matst80/slask-crossfilter/pkg/server"
	"github.com/matst80/slask-crossfilter/pkg/state"
	"github.com/matst80/slask-crossfilter/pkg/table"
	"github.com/matst80/slask-crossfilter/pkg/types"
)

var enableProfiling = flag.Bool("profiling", false, "enable profiling endpoints")
var tablePath = flag.String("table", os.Getenv("TABLE_PATH"), "reference table (.csv, .tsv or .json)")
var chartsPath = flag.String("charts", os.Getenv("CHARTS_PATH"), "chart bindings (.json)")
var idColumn = envOr("ID_COLUMN", "id")
var initialState = envOr("INITIAL_STATE", "all")
var redisUrl = os.Getenv("REDIS_URL")
var redisPassword = os.Getenv("REDIS_PASSWORD")
var stateKey = envOr("STATE_KEY", "crossfilter:selection")
var rabbitUrl = os.Getenv("RABBIT_URL")
var rabbitPrefix = envOr("RABBIT_PREFIX", "crossfilter")
var listenAddress = envOr("LISTEN_ADDRESS", ":8080")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *tablePath == "" || *chartsPath == "" {
		log.Fatalf("both TABLE_PATH and CHARTS_PATH are required")
	}
	tbl, err := table.LoadFile(*tablePath)
	if err != nil {
		log.Fatalf("could not load table %s: %v", *tablePath, err)
	}
	log.Printf("loaded %d rows, columns %v", tbl.Len(), tbl.Columns())

	charts, err := loadCharts(*chartsPath)
	if err != nil {
		log.Fatalf("could not load charts %s: %v", *chartsPath, err)
	}

	initial := types.IdSet{}
	if initialState == "all" {
		if initial, err = allIds(tbl, idColumn); err != nil {
			log.Fatalf("initial state: %v", err)
		}
	}

	hooks := make([]common.ShutdownHook, 0)
	var store state.Store
	if redisUrl != "" {
		redisStore := state.NewRedisStore(redisUrl, redisPassword, 0, stateKey)
		written, err := redisStore.Init(ctx, initial)
		if err != nil {
			log.Fatalf("could not initialise state in redis: %v", err)
		}
		log.Printf("using redis state %s (initialised: %v)", stateKey, written)
		if err = redisStore.Subscribe(ctx, logSelection("redis")); err != nil {
			log.Fatalf("could not subscribe to %s: %v", redisStore.Channel, err)
		}
		hooks = append(hooks, func(ctx context.Context) error {
			return redisStore.Close()
		})
		store = redisStore
	} else {
		log.Printf("no redis url provided, keeping state in memory")
		memoryStore := state.NewMemoryStore(initial.Values()...)
		memoryStore.Subscribe(logSelection("memory"))
		store = memoryStore
	}

	dispatcher := crossfilter.NewDispatcher()
	if err = registerCharts(dispatcher, tbl, store, idColumn, charts); err != nil {
		log.Fatalf("could not register charts: %v", err)
	}

	if rabbitUrl != "" {
		transport := messaging.NewRabbitTransport(messaging.RabbitConfig{
			Url:    rabbitUrl,
			Prefix: rabbitPrefix,
		})
		if err = transport.Connect(); err != nil {
			log.Fatalf("could not connect to rabbit: %v", err)
		}
		dispatcher.OnChange = transport.PublishChange
		events := make(chan types.SelectionEvent, 64)
		if err = transport.ListenForSelections(events); err != nil {
			log.Fatalf("could not listen for selections: %v", err)
		}
		if err = transport.ListenForChanges(logChange); err != nil {
			log.Fatalf("could not listen for state changes: %v", err)
		}
		go func() {
			if err := dispatcher.Run(ctx, events); err != nil && err != context.Canceled {
				log.Printf("event loop stopped: %v", err)
			}
		}()
		hooks = append(hooks, func(ctx context.Context) error {
			return transport.Close()
		})
	} else {
		dispatcher.OnChange = func(_ context.Context, change types.StateChange) {
			logChange(change)
		}
	}

	srv := server.WebServer{
		Dispatcher: dispatcher,
		State:      store,
	}
	timeouts := common.LoadTimeoutConfig(common.DefaultTimeouts)
	httpServer := common.NewServer(listenAddress, srv.Handle(*enableProfiling), timeouts)
	common.RunServerWithShutdown(ctx, httpServer, "crossfilter", timeouts, hooks...)
}

func logChange(change types.StateChange) {
	log.Printf("chart %s narrowed selection %d -> %d", change.Chart, change.Before, change.After)
}

// logSelection reports every value written to the shared state.
func logSelection(source string) state.Listener {
	return func(ids types.IdSet) {
		log.Printf("%s selection updated, %d ids", source, ids.Len())
	}
}
