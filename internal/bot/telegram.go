package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"entrywatch/internal/domain"
	"entrywatch/internal/registry"
	"entrywatch/internal/scheduler"

	tele "gopkg.in/telebot.v3"
)

type AnalysisScheduler interface {
	StartRun(ctx context.Context, onComplete func(scheduler.Summary)) error
	Cancel() bool
	Status() scheduler.Status
}

type Advisor interface {
	Advise(ctx context.Context, asset domain.TrackedAsset) (string, error)
}

func StartTelegramBot(reg *registry.Registry, sched AnalysisScheduler, adv Advisor) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/price", func(c tele.Context) error {
		asset, errMsg := lookupAsset(reg, c.Args())
		if errMsg != "" {
			return c.Send(errMsg)
		}
		if asset.CurrentPrice == 0 {
			return c.Send(fmt.Sprintf("No price yet for %s, try again in a minute", asset.Symbol))
		}
		return c.Send(fmt.Sprintf("%s\nPrice: $%.2f\nUpdated: %s",
			asset.Symbol, asset.CurrentPrice, asset.PriceUpdatedAt.UTC().Format(time.RFC822)))
	})

	b.Handle("/score", func(c tele.Context) error {
		asset, errMsg := lookupAsset(reg, c.Args())
		if errMsg != "" {
			return c.Send(errMsg)
		}
		if asset.Status == domain.StatusNone {
			return c.Send(fmt.Sprintf("%s has not been analyzed yet, use /run", asset.Symbol))
		}
		msg := fmt.Sprintf("%s\nScore: %.0f (%s)\nStatus: %s",
			asset.Symbol, asset.Score, asset.Signal, asset.Status)
		if snap := asset.Indicators; snap != nil {
			msg += fmt.Sprintf("\nTrend: %s, RSI: %.1f, quality: %s", snap.Trend, snap.RSI, snap.Quality)
			if snap.Synthetic {
				msg += "\n(based on synthetic fallback data)"
			}
		}
		return c.Send(msg)
	})

	b.Handle("/run", func(c tele.Context) error {
		chat := c.Chat()
		err := sched.StartRun(context.Background(), func(sum scheduler.Summary) {
			msg := fmt.Sprintf("Analysis run finished: %d/%d processed, %d failed",
				sum.Processed, sum.Total, sum.Failed)
			if sum.Cancelled {
				msg += " (cancelled)"
			}
			if _, err := b.Send(chat, msg); err != nil {
				log.Printf("failed to send run summary: %v", err)
			}
		})
		switch {
		case err == nil:
			return c.Send("Analysis run started")
		case errors.Is(err, scheduler.ErrRunInProgress):
			return c.Send("A run is already in progress")
		case errors.Is(err, scheduler.ErrCoolingDown):
			return c.Send("Cooling down, try again shortly")
		default:
			return c.Send(fmt.Sprintf("Could not start run: %v", err))
		}
	})

	b.Handle("/cancel", func(c tele.Context) error {
		if !sched.Cancel() {
			return c.Send("No run is active")
		}
		return c.Send("Cancelling after the current asset")
	})

	b.Handle("/status", func(c tele.Context) error {
		st := sched.Status()
		if st.Running {
			return c.Send(fmt.Sprintf("Running: %d/%d done, current %s", st.Processed, st.Total, st.Current))
		}
		if st.CooldownRemaining > 0 {
			return c.Send(fmt.Sprintf("Idle, cooldown %.0fs remaining", st.CooldownRemaining))
		}
		return c.Send("Idle")
	})

	b.Handle("/advice", func(c tele.Context) error {
		if adv == nil {
			return c.Send("Advisor is not configured")
		}
		asset, errMsg := lookupAsset(reg, c.Args())
		if errMsg != "" {
			return c.Send(errMsg)
		}
		reply, err := adv.Advise(context.Background(), asset)
		if err != nil {
			return c.Send(fmt.Sprintf("Advisor error: %v", err))
		}
		return c.Send(reply)
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func lookupAsset(reg *registry.Registry, args []string) (domain.TrackedAsset, string) {
	if len(args) == 0 {
		return domain.TrackedAsset{}, "Usage: /price BTC\nSupported: " + strings.Join(domain.SupportedSymbols, ", ")
	}
	symbol := strings.ToUpper(args[0])
	asset, ok := reg.GetBySymbol(symbol)
	if !ok {
		return domain.TrackedAsset{}, fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", "))
	}
	return asset, ""
}
