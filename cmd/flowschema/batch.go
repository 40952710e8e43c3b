package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/procwise/flowschema/internal/diagram"
	"github.com/procwise/flowschema/internal/extract"
	"github.com/procwise/flowschema/internal/jq"
	"github.com/procwise/flowschema/internal/logging"
	"github.com/procwise/flowschema/internal/store"
	"github.com/procwise/flowschema/internal/validation"
	"github.com/procwise/flowschema/pkg/schema"
)

// batchOptions controls one dataset extraction pass.
type batchOptions struct {
	DatasetPath string
	Where       string // expr filter over records, empty matches all
	Select      string // jq expression applied to each output document
	Mermaid     bool   // render Mermaid flowcharts instead of JSON documents
	Output      string // "-" for stdout
}

// batchRunner reads a dataset file, validates and extracts every record, and
// writes the results. It satisfies scheduler.BatchRunner so runs can repeat
// on a cron schedule.
type batchRunner struct {
	opts      batchOptions
	validator *validation.RecordValidator
	filter    *jq.Filter
	selector  *jq.Selector
	store     store.Store // nil disables persistence
	logger    *slog.Logger
}

func newBatchRunner(opts batchOptions, st store.Store, logger *slog.Logger) (*batchRunner, error) {
	v, err := validation.NewRecordValidator()
	if err != nil {
		return nil, fmt.Errorf("build record validator: %w", err)
	}
	return &batchRunner{
		opts:      opts,
		validator: v,
		filter:    jq.NewFilter(),
		selector:  jq.NewSelector(),
		store:     st,
		logger:    logger,
	}, nil
}

// RunBatch performs one full pass over the dataset. Per-record failures are
// logged and counted but do not abort the run.
func (b *batchRunner) RunBatch(ctx context.Context) error {
	data, err := os.ReadFile(b.opts.DatasetPath)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}

	var rawRecords []json.RawMessage
	if err := json.Unmarshal(data, &rawRecords); err != nil {
		return fmt.Errorf("dataset must be a JSON array of records: %w", err)
	}

	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	log := logging.LogWith(ctx, b.logger)
	log.Info("starting extraction run",
		slog.String("dataset", b.opts.DatasetPath),
		slog.Int("records", len(rawRecords)),
	)

	if b.store != nil {
		run := &store.Run{ID: runID, Source: b.opts.DatasetPath, StartedAt: time.Now().UTC()}
		if err := b.store.CreateRun(ctx, run); err != nil {
			return fmt.Errorf("create run: %w", err)
		}
	}

	outputs := make([]any, 0, len(rawRecords))
	var charts []string
	processed, failed := 0, 0

	for i, raw := range rawRecords {
		recCtx := logging.WithFileIndex(ctx, i)
		recLog := logging.LogWith(recCtx, b.logger)

		doc, procErr := b.processRecord(recCtx, raw)
		if procErr != nil {
			failed++
			recLog.Error("record failed", slog.String("error", procErr.Error()))
			continue
		}
		if doc == nil {
			continue // filtered out
		}
		processed++

		if b.store != nil {
			if saveErr := b.saveDocument(recCtx, runID, doc); saveErr != nil {
				recLog.Error("failed to persist extraction", slog.String("error", saveErr.Error()))
			}
		}

		if b.opts.Mermaid {
			charts = append(charts, diagram.RenderMermaid(diagram.FromDocument(doc)))
			continue
		}

		out, selErr := b.selectOutput(recCtx, doc)
		if selErr != nil {
			failed++
			processed--
			recLog.Error("select failed", slog.String("error", selErr.Error()))
			continue
		}
		outputs = append(outputs, out)
	}

	if b.store != nil {
		if err := b.store.FinishRun(ctx, runID, processed, failed); err != nil {
			log.Error("failed to finish run", slog.String("error", err.Error()))
		}
	}

	if err := b.writeOutput(outputs, charts); err != nil {
		return err
	}

	log.Info("extraction run complete",
		slog.Int("processed", processed),
		slog.Int("failed", failed),
	)
	if processed == 0 && failed > 0 {
		return schema.NewErrorf(schema.ErrCodeExecution, "all %d records failed", failed)
	}
	return nil
}

// processRecord validates, filters and extracts one raw record. A nil
// document with nil error means the record was excluded by the filter.
func (b *batchRunner) processRecord(ctx context.Context, raw json.RawMessage) (*schema.Document, error) {
	if err := b.validator.ValidateRaw(raw); err != nil {
		return nil, err
	}

	var rec schema.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeMalformedRecord, "decode record: %v", err)
	}

	if b.opts.Where != "" {
		matched, err := b.filter.Match(ctx, b.opts.Where, jq.RecordEnv(&rec))
		if err != nil {
			return nil, err
		}
		if !matched {
			return nil, nil
		}
	}

	return extract.Extract(&rec)
}

func (b *batchRunner) saveDocument(ctx context.Context, runID string, doc *schema.Document) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return b.store.SaveExtraction(ctx, &store.Extraction{
		RunID:        runID,
		FileIndex:    doc.FileIndex,
		Document:     docJSON,
		ActionCount:  len(doc.Workflow.Actions),
		GatewayCount: len(doc.Workflow.Gateways),
		StateCount:   len(doc.Workflow.ExecutionStates),
		CreatedAt:    time.Now().UTC(),
	})
}

// selectOutput applies the jq select expression, or returns the document
// unchanged when none is configured.
func (b *batchRunner) selectOutput(ctx context.Context, doc *schema.Document) (any, error) {
	if b.opts.Select == "" {
		return doc, nil
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(docJSON, &m); err != nil {
		return nil, err
	}
	return b.selector.Select(ctx, b.opts.Select, m)
}

func (b *batchRunner) writeOutput(outputs []any, charts []string) error {
	var rendered []byte
	if b.opts.Mermaid {
		rendered = []byte(strings.Join(charts, "\n"))
	} else {
		var err error
		rendered, err = json.MarshalIndent(outputs, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal output: %w", err)
		}
		rendered = append(rendered, '\n')
	}

	if b.opts.Output == "-" || b.opts.Output == "" {
		_, err := os.Stdout.Write(rendered)
		return err
	}
	return os.WriteFile(b.opts.Output, rendered, 0o644)
}
