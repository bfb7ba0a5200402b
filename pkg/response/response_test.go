package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	TooManyRequests(c, 10004, "请求过于频繁，请稍后再试")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("期望 429, 实际 %d", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Code != 10004 {
		t.Errorf("期望 code=10004, 实际 %d", resp.Code)
	}
}

func TestConflict_CarriesHolder(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Conflict(c, 22103, "教室在该时段已被占用", "h-1")

	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409, 实际 %d", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Details != "h-1" {
		t.Errorf("期望 details=h-1, 实际 %q", resp.Details)
	}
}
