package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Fercho9134/SO1-S12025-202200349/internal/model"
)

// ConsoleStorage prints each report as one JSON line. Used for dry runs.
type ConsoleStorage struct {
	out io.Writer
}

func NewConsoleStorage() *ConsoleStorage {
	return &ConsoleStorage{out: os.Stdout}
}

func (cs *ConsoleStorage) Store(ctx context.Context, report model.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = fmt.Fprintln(cs.out, string(data))
	return err
}

func (cs *ConsoleStorage) Close() error {
	return nil
}

func (cs *ConsoleStorage) StoreBatch(ctx context.Context, reports []model.Report) error {
	for _, report := range reports {
		if err := cs.Store(ctx, report); err != nil {
			return err
		}
	}
	return nil
}
