package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Signer 文档签名链中的一环
// 每次批准后,引擎把截至当前的签名链交给渲染服务
type Signer struct {
	StepOrder int       `json:"step_order"`
	StepName  string    `json:"step_name"`
	Approver  string    `json:"approver"`
	Email     string    `json:"email"`
	Comments  string    `json:"comments"`
	DecidedAt time.Time `json:"decided_at"`
}

// RenderInput 渲染请求
type RenderInput struct {
	RequestID       uint            `json:"request_id"`
	RequestTitle    string          `json:"request_title"`
	RequestType     string          `json:"request_type"`
	TemplateDocPath string          `json:"template_doc_path,omitempty"`
	Requester       string          `json:"requester"`
	RequesterEmail  string          `json:"requester_email"`
	SignaturePath   string          `json:"signature_path,omitempty"`
	FormData        json.RawMessage `json:"form_data,omitempty"`
	Signers         []Signer        `json:"signers"`
}

// RenderResult 渲染结果
type RenderResult struct {
	DocumentPath string `json:"document_path"`
}

// Renderer 文档渲染服务客户端接口
// 渲染服务在外部把签名链排版为签署文档,本服务只保存返回的路径,
// 不关心文档格式。渲染失败不回滚审批决策,由调用方记录告警。
type Renderer interface {
	Render(ctx context.Context, input *RenderInput) (*RenderResult, error)
}

// httpRenderer 基于 HTTP 的渲染服务客户端
type httpRenderer struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPRenderer 创建 HTTP 渲染服务客户端
func NewHTTPRenderer(endpoint string, timeout time.Duration) Renderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpRenderer{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Render 调用渲染服务生成文档
func (r *httpRenderer) Render(ctx context.Context, input *RenderInput) (*RenderResult, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render service returned status %d", resp.StatusCode)
	}

	var result RenderResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode render response: %w", err)
	}
	if result.DocumentPath == "" {
		return nil, fmt.Errorf("render service returned empty document path")
	}
	return &result, nil
}

// noopRenderer 空实现,用于未配置渲染服务的环境和测试
type noopRenderer struct{}

// NewNoopRenderer 创建空渲染客户端
func NewNoopRenderer() Renderer {
	return noopRenderer{}
}

func (noopRenderer) Render(ctx context.Context, input *RenderInput) (*RenderResult, error) {
	return &RenderResult{
		DocumentPath: fmt.Sprintf("approval_%d_%d.pdf", input.RequestID, time.Now().Unix()),
	}, nil
}
