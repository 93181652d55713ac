package service

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"rando/internal/models"
)

// DecodeBuildRequest reads a models.BuildRequest from a message value. A
// request without an id takes the message key, if any.
func DecodeBuildRequest(msg kafka.Message) (models.BuildRequest, error) {
	var req models.BuildRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return models.BuildRequest{}, fmt.Errorf("decode build request: %w", err)
	}
	if req.ID == "" {
		req.ID = string(msg.Key)
	}
	if req.ID == "" {
		return models.BuildRequest{}, fmt.Errorf("build request at offset %d has no id", msg.Offset)
	}
	return req, nil
}

// NewBuildRequestIterator returns an Iterator over the build requests of
// messages.
func NewBuildRequestIterator(messages MessageIterator, logger *slog.Logger) *Iterator[models.BuildRequest] {
	return NewIterator(messages, DecodeBuildRequest, logger)
}
