package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/codeminder/internal/ai"
	"github.com/sakif/codeminder/internal/apperror"
	"github.com/sakif/codeminder/internal/metrics"
)

// generateText runs one free-text model call for feature.
func generateText(ctx context.Context, model ai.Model, logger *slog.Logger, feature, prompt string) (string, error) {
	text, err := model.Generate(ctx, prompt, ai.FormatText)
	metrics.RecordAIRequest(feature, err)
	if err != nil {
		logAIError(logger, feature, err)
		return "", err
	}
	return text, nil
}

// generateJSON runs one model call for feature and decodes the answer into v
// under the strict-then-repair contract of ai.DecodeJSON.
func generateJSON(ctx context.Context, model ai.Model, logger *slog.Logger, feature, prompt string, v any) (ai.Parse, error) {
	text, err := model.Generate(ctx, prompt, ai.FormatJSON)
	if err == nil {
		var parse ai.Parse
		parse, err = ai.DecodeJSON(text, v)
		if err == nil {
			metrics.RecordAIRequest(feature, nil)
			if parse.Repaired {
				logger.Warn("model output required repair", slog.String("feature", feature))
			}
			return parse, nil
		}
	}
	metrics.RecordAIRequest(feature, err)
	logAIError(logger, feature, err)
	return ai.Parse{}, err
}

func logAIError(logger *slog.Logger, feature string, err error) {
	attrs := []any{slog.String("feature", feature), slog.String("error", err.Error())}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Cause != nil {
		attrs = append(attrs, slog.String("cause", appErr.Cause.Error()))
	}
	logger.Error("ai request failed", attrs...)
}
