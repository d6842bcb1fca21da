package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client OSRM 호환 라우팅 서버 클라이언트
type Client struct {
	baseURL string
	profile string
	http    *http.Client
}

// NewClient Client 생성. profile은 driving / walking 등 OSRM 프로파일.
func NewClient(baseURL, profile string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		profile: profile,
		http:    &http.Client{Timeout: timeout},
	}
}

// osrmResponse OSRM /route 응답 (필요한 필드만)
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Duration float64 `json:"duration"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// Route 두 지점 사이의 이동 시간(초)과 거리(미터) 조회
func (c *Client) Route(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (float64, float64, error) {
	// OSRM 좌표 순서는 lng,lat
	url := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?overview=false",
		c.baseURL, c.profile, fromLng, fromLat, toLng, toLat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("route request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("route server returned status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("failed to decode route response: %w", err)
	}

	if body.Code != "Ok" || len(body.Routes) == 0 {
		return 0, 0, fmt.Errorf("no route found (code=%s)", body.Code)
	}

	return body.Routes[0].Duration, body.Routes[0].Distance, nil
}
