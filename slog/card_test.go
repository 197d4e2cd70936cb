package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/cardgap"
	"github.com/fwojciec/cardgap/mock"
	cgslog "github.com/fwojciec/cardgap/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingCardService_FetchCard(t *testing.T) {
	t.Parallel()

	debug := &slog.HandlerOptions{Level: slog.LevelDebug}

	t.Run("logs fetch with bytes and duration", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, debug))
		inner := &mock.CardService{
			FetchCardFn: func(_ context.Context, id string) (*cardgap.Card, error) {
				return &cardgap.Card{ModelID: id, Content: "## Uses\n"}, nil
			},
		}

		svc := cgslog.NewLoggingCardService(inner, logger)
		card, err := svc.FetchCard(context.Background(), "org/model")

		require.NoError(t, err)
		assert.Equal(t, "org/model", card.ModelID)
		output := buf.String()
		assert.Contains(t, output, "fetch card")
		assert.Contains(t, output, "model=org/model")
		assert.Contains(t, output, "bytes=8")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs missing card without error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, debug))
		inner := &mock.CardService{
			FetchCardFn: func(context.Context, string) (*cardgap.Card, error) {
				return nil, cardgap.Errorf(cardgap.ENOTFOUND, "no card")
			},
		}

		svc := cgslog.NewLoggingCardService(inner, logger)
		_, err := svc.FetchCard(context.Background(), "org/model")

		assert.Equal(t, cardgap.ENOTFOUND, cardgap.ErrorCode(err))
		output := buf.String()
		assert.Contains(t, output, "missing=true")
		assert.NotContains(t, output, "err=")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.CardService{
			FetchCardFn: func(context.Context, string) (*cardgap.Card, error) {
				return nil, errors.New("network error")
			},
		}

		svc := cgslog.NewLoggingCardService(inner, logger)
		_, err := svc.FetchCard(context.Background(), "org/model")

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "err=\"network error\"")
	})
}
