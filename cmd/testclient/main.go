package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"navi-route-go/pkg/models"
)

func main() {
	baseURL := "http://localhost:8080"
	if len(os.Args) > 1 {
		baseURL = os.Args[1]
	}
	apiKey := os.Getenv("API_KEY")

	client := &http.Client{Timeout: 10 * time.Second}

	// Проверяем health endpoint
	fmt.Println("Проверяем health endpoint...")
	if err := printGet(client, baseURL+"/api/v1/health"); err != nil {
		fmt.Printf("Ошибка при обращении к health endpoint: %v\n", err)
		return
	}

	// Строим маршрут Нью-Йорк - Сан-Франциско дважды: второй ответ берется из кэша
	request := models.RouteRequest{
		Start: models.Coordinates{Lat: 40.7128, Lng: -74.0060},
		End:   models.Coordinates{Lat: 37.7749, Lng: -122.4194},
	}
	for i := 1; i <= 2; i++ {
		fmt.Printf("Запрос маршрута #%d...\n", i)
		if err := findRoute(client, baseURL, apiKey, request); err != nil {
			fmt.Printf("Ошибка при построении маршрута: %v\n", err)
			return
		}
	}

	fmt.Println("Метрики сервиса:")
	if err := printGet(client, baseURL+"/api/v1/metrics"); err != nil {
		fmt.Printf("Ошибка при получении метрик: %v\n", err)
	}
}

func findRoute(client *http.Client, baseURL, apiKey string, request models.RouteRequest) error {
	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("ошибка кодирования запроса: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/navigation/route", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка отправки запроса: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("статус %d: %s", resp.StatusCode, string(body))
	}

	var result models.RouteResult
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("ошибка парсинга ответа: %w", err)
	}

	fmt.Printf("Получено %d точек за %.3f мс\n", len(result.Path), result.CalculationTimeMs)
	return nil
}

func printGet(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	fmt.Printf("Ответ (статус %d):\n%s\n\n", resp.StatusCode, string(body))
	return nil
}
