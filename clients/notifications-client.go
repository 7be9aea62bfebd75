package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"estate-crm/microservices/deals-service/logging"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationsClient posts outcome notifications to the notifications
// service. Deliveries go through a circuit breaker and failures are only
// logged; the deal flow never waits on the notifications service.
type NotificationsClient struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewNotificationsClient(baseURL string, httpClient *http.Client, breaker *gobreaker.CircuitBreaker) *NotificationsClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &NotificationsClient{
		baseURL:    baseURL,
		httpClient: httpClient,
		breaker:    breaker,
	}
}

func (c *NotificationsClient) Notify(ctx context.Context, memberID primitive.ObjectID, message string) {
	payload := map[string]string{
		"userId":  memberID.Hex(),
		"message": message,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_MARSHAL_ERROR, Description: Failed to marshal notification payload: %v", err)
		return
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notifications/add", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to send notification to member %s: %v", memberID.Hex(), err)
	}
}
