package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"readmission-risk-go/pkg/log"
)

// HTTPScorer 调用外部模型服务（TF Serving 风格的 REST 接口）进行预测。
type HTTPScorer struct {
	endpoint  string
	inputSize int
	version   string
	client    *http.Client
}

// NewHTTPScorer 创建一个新的 HTTPScorer。
func NewHTTPScorer(endpoint string, inputSize int, version string, timeout time.Duration) *HTTPScorer {
	return &HTTPScorer{
		endpoint:  endpoint,
		inputSize: inputSize,
		version:   version,
		client:    &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances [][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []float64 `json:"predictions"`
}

// PredictProba 把特征向量发送给模型服务并返回正类概率。
func (s *HTTPScorer) PredictProba(ctx context.Context, features []float64) (float64, error) {
	if err := checkShape(features, s.inputSize); err != nil {
		return 0, err
	}
	reqBytes, err := json.Marshal(predictRequest{Instances: [][]float64{features}})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(reqBytes))
	if err != nil {
		return 0, fmt.Errorf("failed to create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		log.Errorf("[ClassifierClient] 调用模型服务失败, error: %v", err)
		return 0, fmt.Errorf("failed to call classifier: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[ClassifierClient] 模型服务返回非 200 状态码: %s", resp.Status)
		return 0, fmt.Errorf("classifier returned non-200 status: %s", resp.Status)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("classifier returned %d predictions for 1 instance", len(out.Predictions))
	}
	p := out.Predictions[0]
	if err := checkProbability(p); err != nil {
		return 0, err
	}
	return p, nil
}

// InputSize 返回模型服务期望的特征向量长度。
func (s *HTTPScorer) InputSize() int { return s.inputSize }

// Version 返回配置中声明的模型版本。
func (s *HTTPScorer) Version() string { return s.version }
