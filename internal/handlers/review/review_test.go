package review

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*ReviewHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	return New(service), service
}

func TestReviewSubmissionHandler(t *testing.T) {
	handler, service := NewMock(t)
	inviter := 2
	amount := 8.0

	tests := []struct {
		name         string
		id           string
		body         string
		prepareMock  func()
		expectedCode int
		expectedBody *dto.ReviewResponseDTO
	}{
		{
			name: "Approve fixed",
			id:   "15",
			body: `{"decision":"approve"}`,
			prepareMock: func() {
				service.EXPECT().ReviewSubmission(gomock.Any(), 1, 15, domain.DecisionApprove, (*float64)(nil), "").
					Return(&domain.Outcome{
						SubmissionID: 15, Status: domain.SubmissionApproved, FinalAmount: 11, InviterID: &inviter, Commission: 1.1,
					}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.ReviewResponseDTO{
				SubmissionID: 15, Status: "approved", FinalAmount: 11, InviterID: &inviter, Commission: 1.1,
			},
		},
		{
			name: "Approve dynamic",
			id:   "15",
			body: `{"decision":"approve","amount":8}`,
			prepareMock: func() {
				service.EXPECT().ReviewSubmission(gomock.Any(), 1, 15, domain.DecisionApprove, &amount, "").
					Return(&domain.Outcome{SubmissionID: 15, Status: domain.SubmissionApproved, FinalAmount: 8}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Reject",
			id:   "15",
			body: `{"decision":"reject","feedback":"cropped"}`,
			prepareMock: func() {
				service.EXPECT().ReviewSubmission(gomock.Any(), 1, 15, domain.DecisionReject, (*float64)(nil), "cropped").
					Return(&domain.Outcome{SubmissionID: 15, Status: domain.SubmissionRejected, CreditScore: 90}, nil)
			},
			expectedCode: http.StatusOK,
			expectedBody: &dto.ReviewResponseDTO{SubmissionID: 15, Status: "rejected", CreditScore: 90},
		},
		{
			name:         "Invalid id",
			id:           "nope",
			body:         `{"decision":"approve"}`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Invalid request body",
			id:           "15",
			body:         `{`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Unknown decision",
			id:           "15",
			body:         `{"decision":"maybe"}`,
			prepareMock:  func() {},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Already settled",
			id:   "15",
			body: `{"decision":"approve"}`,
			prepareMock: func() {
				service.EXPECT().ReviewSubmission(gomock.Any(), 1, 15, domain.DecisionApprove, (*float64)(nil), "").
					Return(nil, domain.ErrAlreadySettled)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Storage failure",
			id:   "15",
			body: `{"decision":"approve"}`,
			prepareMock: func() {
				service.EXPECT().ReviewSubmission(gomock.Any(), 1, 15, domain.DecisionApprove, (*float64)(nil), "").
					Return(nil, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := auth.WithActor(r.Context(), domain.Actor{UserID: 1, Admin: true})
			r = r.WithContext(context.WithValue(ctx, chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			handler.ReviewSubmission(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedBody != nil {
				var body dto.ReviewResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, *tt.expectedBody, body)
			}
		})
	}
}
