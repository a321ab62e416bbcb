package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/blocknode/app/config"
	"github.com/ardanlabs/blocknode/app/services/node/handlers"
	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
	"github.com/ardanlabs/blocknode/foundation/blockchain/pow"
	"github.com/ardanlabs/blocknode/foundation/blockchain/state"
	"github.com/ardanlabs/blocknode/foundation/logger"
	"go.uber.org/zap"
)

// build is the version of this program, set using build flags in the makefile.
var build = "develop"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		var uf *config.ErrUnknownFlag
		if errors.As(err, &uf) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(config.ExitUnknownFlag)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(config.ExitFailure)
	}

	log, err := logger.New("NODE")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(config.ExitFailure)
	}
	defer log.Sync()

	if err := run(log, cfg); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(config.ExitFailure)
	}
}

func run(log *zap.SugaredLogger, cfg config.Config) error {
	log.Infow("starting node", "version", build, "name", cfg.Name)
	defer log.Infow("shutdown complete")

	keyPair, err := crypto.NewKeyPair()
	if err != nil {
		return fmt.Errorf("generating node key pair: %w", err)
	}
	log.Infow("startup", "address", keyPair.Address())

	chainCfg := blockchain.Config{}

	if cfg.BlockGen != nil {
		chainCfg.ProofOfWorkEnabled = true
		chainCfg.PowTarget = pow.Target{
			TimeExpectedSeconds: int64(cfg.BlockGen.TimeExpected),
			DifficultyInit:      cfg.BlockGen.DifficultyInit,
			AdjustAfter:         uint64(cfg.BlockGen.DifficultyAdjustAfter),
			AdjustFactorLimit:   cfg.BlockGen.DifficultyAdjustFactorLimit,
		}
		log.Infow("startup", "status", "proof-of-work enabled", "difficulty_init", cfg.BlockGen.DifficultyInit)
	} else {
		log.Infow("startup", "status", "proof-of-work disabled")
	}

	if cfg.Transaction != nil {
		chainCfg.TransactionsEnabled = true
		chainCfg.RewardAmount = cfg.Transaction.RewardAmount
		log.Infow("startup", "status", "transactions enabled", "reward_amount", cfg.Transaction.RewardAmount)
	} else {
		log.Infow("startup", "status", "transactions disabled")
	}

	self := peer.New(cfg.WebsocketHost, cfg.WebsocketPort)

	st := state.New(log, state.Config{
		Chain:         chainCfg,
		Self:          self,
		MiningEnabled: cfg.BlockGen != nil,
		MinerAddress:  keyPair.Address(),
	})
	defer st.Shutdown()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
	})
	debugMux := handlers.DebugMux(build, log, st)

	root := http.NewServeMux()
	root.Handle("/debug/", debugMux)
	root.Handle("/", apiMux)

	api := http.Server{
		Addr:         net.JoinHostPort(cfg.HTTPHost, strconv.Itoa(cfg.HTTPPort)),
		Handler:      root,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	wsMux := handlers.WebsocketMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
	})

	ws := http.Server{
		Addr:         net.JoinHostPort(cfg.WebsocketHost, strconv.Itoa(cfg.WebsocketPort)),
		Handler:      wsMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  0,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "websocket listener started", "host", ws.Addr)
		serverErrors <- ws.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop api service gracefully: %w", err)
		}

		if err := ws.Shutdown(ctx); err != nil {
			ws.Close()
			return fmt.Errorf("could not stop websocket listener gracefully: %w", err)
		}
	}

	return nil
}
