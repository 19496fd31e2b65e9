// Applies the database schema and, with -demo, seeds a funded demo wallet so
// the payment flow can be exercised locally without going through checkout.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"art-gallery-payments/internal/config"
	pg "art-gallery-payments/internal/infra/db/postgres"
	"art-gallery-payments/internal/usecase"

	"github.com/rs/zerolog"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	demo := flag.Bool("demo", false, "seed a demo user wallet with a starting balance")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, pg.Schema); err != nil {
		log.Fatalf("apply schema: %v", err)
	}
	fmt.Println("schema applied")

	if !*demo {
		return
	}

	const demoUser = "demo-user"
	const demoBalance = int64(500_000)

	nop := zerolog.Nop()
	walletRepo := pg.NewWalletRepo(pool)
	ledgerRepo := pg.NewTransactionRepo(pool)
	tm := pg.NewTxManager(pool)
	walletUC := usecase.NewWalletUseCase(walletRepo, ledgerRepo, tm, cfg.Wallet.DailyWithdrawLimit, &nop)

	w, err := walletUC.Get(ctx, demoUser)
	if err != nil {
		log.Fatalf("demo wallet: %v", err)
	}
	if w.Balance > 0 {
		fmt.Printf("demo wallet already funded (balance=%d). No changes.\n", w.Balance)
		return
	}
	if ok, err := walletRepo.CreditBalance(ctx, nil, w.ID, demoBalance); err != nil || !ok {
		log.Fatalf("fund demo wallet: ok=%v err=%v", ok, err)
	}
	fmt.Printf("seeded: user=%s wallet=%s balance=%d\n", demoUser, w.ID, demoBalance)
}
