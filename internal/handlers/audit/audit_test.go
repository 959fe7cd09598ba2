package audit

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestListAuditLogsHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		target       string
		prepareMock  func()
		expectedCode int
		expectedBody []dto.AuditLogResponseDTO
	}{
		{
			name:   "First page by default",
			target: "/api/admin/audit-logs",
			prepareMock: func() {
				service.EXPECT().ListAuditLogs(gomock.Any(), 1).Return([]domain.AuditLog{
					{ID: 12, OperatorID: 1, Action: "submission.approve", TargetID: 5, Detail: `{"amount":"11.00"}`, CreatedAt: createdAt},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: []dto.AuditLogResponseDTO{
				{ID: 12, OperatorID: 1, Action: "submission.approve", TargetID: 5, Detail: `{"amount":"11.00"}`, CreatedAt: createdAt},
			},
		},
		{
			name:   "Past the last page",
			target: "/api/admin/audit-logs?page=7",
			prepareMock: func() {
				service.EXPECT().ListAuditLogs(gomock.Any(), 7).Return([]domain.AuditLog{}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: []dto.AuditLogResponseDTO{},
		},
		{
			name:         "Invalid page",
			target:       "/api/admin/audit-logs?page=-1",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:   "Internal server error",
			target: "/api/admin/audit-logs?page=2",
			prepareMock: func() {
				service.EXPECT().ListAuditLogs(gomock.Any(), 2).Return(nil, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()

			handler.ListAuditLogs(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != nil {
				var body []dto.AuditLogResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, tt.expectedBody, body)
			}
		})
	}
}
