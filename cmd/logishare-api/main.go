// README: Entry point; loads config, wires the engine, starts HTTP server and background workers.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"logishare/internal/ai"
	"logishare/internal/config"
	"logishare/internal/event"
	httptransport "logishare/internal/http"
	"logishare/internal/infra"
	"logishare/internal/maps"
	"logishare/internal/modules/candidate"
	"logishare/internal/modules/matching"
	"logishare/internal/modules/settlement"
	"logishare/internal/modules/shipment"
	"logishare/internal/modules/tariff"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	events := event.NewPublisher(redisClient)

	shipmentStore := shipment.NewPGStore(dbPool)
	shipmentSvc := shipment.NewService(shipmentStore)

	index := candidate.NewIndex()
	candidateStore := candidate.NewStore(dbPool, redisClient)
	candidateSvc := candidate.NewService(index, candidateStore)
	if err := candidateSvc.Refresh(ctx); err != nil {
		log.Printf("initial fleet load: %v", err)
	}

	router, err := maps.NewRouteService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("maps init: %v", err)
	}

	tariffSvc := tariff.NewService(tariff.NewStore(dbPool), cfg.Tariff)
	settlementStore := settlement.NewPGStore(dbPool)
	aggregator := settlement.NewAggregator(settlementStore, events, cfg.Settlement)

	matchStore := matching.NewPGStore(dbPool)
	scorer := matching.NewScorer(cfg.Matching)
	processor := matching.NewProcessor(
		shipmentSvc, index, scorer, matchStore, router, tariffSvc, aggregator, candidateSvc, events, cfg.Matching,
	)

	var notes ai.NoteProvider
	if cfg.AI.GeminiKey != "" {
		gemini, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Printf("gemini init: %v (match notes disabled)", err)
		} else {
			defer gemini.Close()
			notes = gemini
		}
	}

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Shipments:       shipmentSvc,
		Processor:       processor,
		MatchStore:      matchStore,
		Index:           index,
		CandidateStore:  candidateStore,
		Aggregator:      aggregator,
		SettlementStore: settlementStore,
		Notes:           notes,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go processor.Run(ctx)
	go candidateSvc.Run(ctx)
	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	log.Printf("listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
