package pmsapi

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"pms-rateops/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// listEnvelope PMS 核心 API 列表响应格式：{"content": [...]}
type listEnvelope[T any] struct {
	Content []T `json:"content"`
}

// RateFilter 房价查询过滤条件
type RateFilter struct {
	RatePlanCode string
	RoomTypeCode string
	StartDate    string // YYYY-MM-DD，闭区间
	EndDate      string
}

// Client PMS 核心 API 客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建 PMS 核心 API 客户端
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if apiKey != "" {
		client.SetHeader("X-Api-Key", apiKey)
	}

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// ListRoomTypes 获取房型列表（参考数据加载用 size=1000 一次取全）
func (c *Client) ListRoomTypes(ctx context.Context, page, size int) ([]domain.RoomType, error) {
	var out listEnvelope[domain.RoomType]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(page),
			"size": strconv.Itoa(size),
		}).
		SetResult(&out).
		Get("/api/v1/room-types")
	if err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("PMS API error listing room types: %s", resp.Status())
	}
	return out.Content, nil
}

// ListRatePlans 获取价格方案列表
func (c *Client) ListRatePlans(ctx context.Context, page, size int) ([]domain.RatePlan, error) {
	var out listEnvelope[domain.RatePlan]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page": strconv.Itoa(page),
			"size": strconv.Itoa(size),
		}).
		SetResult(&out).
		Get("/api/v1/rate-plans")
	if err != nil {
		return nil, fmt.Errorf("failed to list rate plans: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("PMS API error listing rate plans: %s", resp.Status())
	}
	return out.Content, nil
}

// ListRoomRates 按方案/房型/日期区间查询已有房价行
func (c *Client) ListRoomRates(ctx context.Context, filter RateFilter) ([]domain.RoomRate, error) {
	params := map[string]string{}
	if filter.RatePlanCode != "" {
		params["ratePlanCode"] = filter.RatePlanCode
	}
	if filter.RoomTypeCode != "" {
		params["roomTypeCode"] = filter.RoomTypeCode
	}
	if filter.StartDate != "" {
		params["startDate"] = filter.StartDate
	}
	if filter.EndDate != "" {
		params["endDate"] = filter.EndDate
	}

	var out listEnvelope[domain.RoomRate]
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/api/v1/room-rates")
	if err != nil {
		return nil, fmt.Errorf("failed to list room rates: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("PMS API error listing room rates: %s", resp.Status())
	}
	return out.Content, nil
}

// CreateRoomRate 创建房价行（以 ratePlanCode/roomTypeCode/rateDate 为业务键）
func (c *Client) CreateRoomRate(ctx context.Context, rate domain.RoomRate) (*domain.RoomRate, error) {
	var created domain.RoomRate
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(rate).
		SetResult(&created).
		Post("/api/v1/room-rates")
	if err != nil {
		return nil, fmt.Errorf("failed to create room rate: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("PMS API rejected room rate create",
			zap.String("rate_plan", rate.RatePlanCode),
			zap.String("room_type", rate.RoomTypeCode),
			zap.String("date", rate.RateDate),
			zap.String("status", resp.Status()),
		)
		return nil, fmt.Errorf("PMS API error creating room rate: %s", resp.Status())
	}
	return &created, nil
}

// UpdateRoomRate 按 id 更新房价行
func (c *Client) UpdateRoomRate(ctx context.Context, id int64, rate domain.RoomRate) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(rate).
		Put(fmt.Sprintf("/api/v1/room-rates/%d", id))
	if err != nil {
		return fmt.Errorf("failed to update room rate %d: %w", id, err)
	}
	if resp.IsError() {
		c.logger.Error("PMS API rejected room rate update",
			zap.Int64("rate_id", id),
			zap.String("status", resp.Status()),
		)
		return fmt.Errorf("PMS API error updating room rate %d: %s", id, resp.Status())
	}
	return nil
}
