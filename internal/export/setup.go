package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/bank-backoffice/internal/config"
	"google.golang.org/api/option"
)

// FromConfig builds the sinks cfg enables: GCS when a bucket is set, BigQuery
// when a project is set and Notion when both token and database are set. The
// returned func closes the underlying clients.
func FromConfig(ctx context.Context, cfg config.ExportConfig) (*Registry, func() error, error) {
	var (
		sinks   []Sink
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	if cfg.GCSBucket != "" {
		storage, err := NewGCSStorage(ctx, clientOptions(cfg, cfg.StorageEndpoint)...)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("FromConfig: %w", err)
		}
		closers = append(closers, storage.Close)
		sinks = append(sinks, NewGCSSink(storage, cfg.GCSBucket))
	}

	if cfg.BigQueryProject != "" {
		inserter, err := NewBigQueryInserter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable,
			clientOptions(cfg, cfg.BigQueryEndpoint)...)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("FromConfig: %w", err)
		}
		closers = append(closers, inserter.Close)
		sinks = append(sinks, NewBigQuerySink(inserter, inserter.TableRef()))
	}

	if cfg.NotionToken != "" && cfg.NotionDatabaseID != "" {
		sinks = append(sinks, NewNotionSink(NewNotionClient(cfg.NotionToken), cfg.NotionDatabaseID))
	}

	return NewRegistry(sinks...), closeAll, nil
}

func clientOptions(cfg config.ExportConfig, endpoint string) []option.ClientOption {
	var opts []option.ClientOption
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	if cfg.WithoutCredentials {
		opts = append(opts, option.WithoutAuthentication())
	}
	return opts
}
