package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Place 장소 검색 결과
type Place struct {
	Name         string  `json:"name"`
	Address      string  `json:"address"`
	CategoryName string  `json:"category_name,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
}

// Client Kakao Local API 호환 장소 검색 클라이언트
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient Client 생성
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// kakaoSearchResponse 키워드 검색 응답 (필요한 필드만)
type kakaoSearchResponse struct {
	Documents []struct {
		PlaceName    string `json:"place_name"`
		AddressName  string `json:"address_name"`
		CategoryName string `json:"category_name"`
		X            string `json:"x"` // 경도
		Y            string `json:"y"` // 위도
	} `json:"documents"`
}

// Search 키워드로 장소 검색
func (c *Client) Search(ctx context.Context, query string, size int) ([]Place, error) {
	if size <= 0 || size > 15 {
		size = 15
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("size", strconv.Itoa(size))

	reqURL := fmt.Sprintf("%s/v2/local/search/keyword.json?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode server returned status %d", resp.StatusCode)
	}

	var body kakaoSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	places := make([]Place, 0, len(body.Documents))
	for _, doc := range body.Documents {
		lng, err1 := strconv.ParseFloat(doc.X, 64)
		lat, err2 := strconv.ParseFloat(doc.Y, 64)
		if err1 != nil || err2 != nil {
			continue // 좌표가 깨진 결과는 버린다
		}
		places = append(places, Place{
			Name:         doc.PlaceName,
			Address:      doc.AddressName,
			CategoryName: doc.CategoryName,
			Latitude:     lat,
			Longitude:    lng,
		})
	}

	return places, nil
}
