package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

const historyKey = "index-runs/history.jsonl"

// S3API is the subset of the S3 client used by ManifestStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Manifest records what one indexing run wrote.
type Manifest struct {
	RunID      string    `json:"run_id"`
	Index      string    `json:"index"`
	Backend    string    `json:"backend"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Report     Report    `json:"report"`
	Chunks     []Chunk   `json:"chunks"`
	Error      string    `json:"error,omitempty"`
}

type historyEntry struct {
	RunID      string `json:"run_id"`
	Key        string `json:"key"`
	FinishedAt string `json:"finished_at"`
	Report     Report `json:"report"`
	Failed     bool   `json:"failed"`
}

// ManifestStore archives run manifests to S3. With no bucket it is a no-op.
type ManifestStore struct {
	bucket string
	client S3API
	logger *logging.Logger
}

func NewManifestStore(client S3API, bucket string, logger *logging.Logger) *ManifestStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &ManifestStore{bucket: bucket, client: client, logger: logger}
}

// Enabled returns true if a bucket is configured.
func (s *ManifestStore) Enabled() bool {
	return s != nil && s.bucket != "" && s.client != nil
}

// Write stores the manifest under index-runs/YYYY/MM/DD/<run>.json and
// appends a line to the run history. It returns the manifest key.
func (s *ManifestStore) Write(ctx context.Context, m *Manifest) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("indexer: marshal manifest: %w", err)
	}

	finished := m.FinishedAt.UTC()
	key := fmt.Sprintf("index-runs/%d/%02d/%02d/%s.json", finished.Year(), finished.Month(), finished.Day(), m.RunID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("indexer: s3 put %s: %w", key, err)
	}
	s.logger.Info("wrote index manifest", "bucket", s.bucket, "key", key, "chunks", len(m.Chunks))

	entry := historyEntry{
		RunID:      m.RunID,
		Key:        key,
		FinishedAt: finished.Format(time.RFC3339),
		Report:     m.Report,
		Failed:     m.Error != "",
	}
	if err := s.appendHistory(ctx, entry); err != nil {
		s.logger.Warn("failed to append index run history", "error", err, "run_id", m.RunID)
	}
	return key, nil
}

// appendHistory does a read-modify-write of the JSONL history object.
func (s *ManifestStore) appendHistory(ctx context.Context, entry historyEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	var existing []byte
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(historyKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(out.Body)
		_ = out.Body.Close()
		if err != nil {
			return fmt.Errorf("indexer: read history: %w", err)
		}
	case isNoSuchKey(err):
	default:
		return fmt.Errorf("indexer: s3 get history: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		buf.WriteByte('\n')
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(historyKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("indexer: s3 put history: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	return errors.As(err, &nsk)
}
