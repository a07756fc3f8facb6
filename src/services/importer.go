package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/username/finsync/src/client"
)

// ImportData uploads a backup file through service/import and refreshes
// every cache once the server has accepted it.
func ImportData(ctx context.Context, transport Transport, orch *client.Orchestrator, filename string, data io.Reader) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to build import upload: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to build import upload: %w", err)
	}

	if _, err := transport.Post(ctx, "service/import", writer.FormDataContentType(), buf.Bytes(), nil); err != nil {
		return err
	}
	orch.UpdateAllData()
	orch.UpdateTransactions()
	return nil
}
