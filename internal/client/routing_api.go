package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"navi-route-go/internal/backend"
	"navi-route-go/pkg/models"

	"github.com/sirupsen/logrus"
)

// maxResponseBytes ограничение размера ответа внешнего сервиса
const maxResponseBytes = 1 << 20

// RoutingAPIClient клиент внешнего сервиса поиска пути.
// Реализует backend.Backend: POST {baseURL}/find_path.
type RoutingAPIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// HealthStatus ответ проверки здоровья внешнего сервиса
type HealthStatus struct {
	Status string `json:"status"`
}

// NewRoutingAPIClient создает новый клиент для сервиса поиска пути
func NewRoutingAPIClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *RoutingAPIClient {
	return &RoutingAPIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Name возвращает имя бэкенда
func (c *RoutingAPIClient) Name() string { return backend.NameHTTP }

// FindPath запрашивает путь у внешнего сервиса
func (c *RoutingAPIClient) FindPath(ctx context.Context, start, end models.Coordinates) ([]models.Coordinates, error) {
	payload, err := json.Marshal(models.RouteRequest{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	url := c.baseURL + "/find_path"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debugf("Отправка POST запроса на %s", url)
	respBody, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrCall, err)
	}

	path, err := backend.DecodePath(respBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", backend.ErrCall, err)
	}
	return path, nil
}

// CheckHealth проверяет состояние внешнего сервиса
func (c *RoutingAPIClient) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	c.logger.Debug("Проверка здоровья сервиса поиска пути")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var health HealthStatus
	if err := json.Unmarshal(respBody, &health); err != nil {
		return nil, fmt.Errorf("failed to decode health response: %w", err)
	}
	return &health, nil
}

func (c *RoutingAPIClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("routing service returned status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}
	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
