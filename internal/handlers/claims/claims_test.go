package claims

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/dto"
	"github.com/GlebRadaev/bountyhub/pkg/auth"
	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

var actor = domain.Actor{UserID: 1}

func NewMock(t *testing.T) (*ClaimHandler, *MockService, *evidence.MockStore) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	store := evidence.NewMockStore(ctrl)
	handler := New(service, store, 1024)
	return handler, service, store
}

func request(method, target, id string, body *bytes.Buffer) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	r := httptest.NewRequest(method, target, body)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	ctx := context.WithValue(auth.WithActor(r.Context(), actor), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func TestGrabTaskHandler(t *testing.T) {
	handler, service, _ := NewMock(t)
	materialID := 120

	tests := []struct {
		name          string
		id            string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Granted",
			id:   "7",
			prepareMock: func() {
				service.EXPECT().GrabTask(gomock.Any(), actor, 7).Return(&domain.Submission{
					ID: 15, UserID: 1, TaskID: 7, MaterialID: &materialID, Status: domain.SubmissionPendingUpload,
				}, nil)
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:          "Invalid id",
			id:            "abc",
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid task id",
		},
		{
			name: "Pool empty",
			id:   "7",
			prepareMock: func() {
				service.EXPECT().GrabTask(gomock.Any(), actor, 7).Return(nil, domain.ErrNoMaterial)
			},
			expectedCode:  http.StatusGone,
			expectedError: domain.ErrNoMaterial.Error(),
		},
		{
			name: "Busy",
			id:   "7",
			prepareMock: func() {
				service.EXPECT().GrabTask(gomock.Any(), actor, 7).Return(nil, domain.ErrBusy)
			},
			expectedCode:  http.StatusLocked,
			expectedError: domain.ErrBusy.Error(),
		},
		{
			name: "Already claimed",
			id:   "7",
			prepareMock: func() {
				service.EXPECT().GrabTask(gomock.Any(), actor, 7).Return(nil, domain.ErrAlreadyClaimed)
			},
			expectedCode:  http.StatusConflict,
			expectedError: domain.ErrAlreadyClaimed.Error(),
		},
		{
			name: "Task hidden",
			id:   "7",
			prepareMock: func() {
				service.EXPECT().GrabTask(gomock.Any(), actor, 7).Return(nil, domain.ErrTaskNotFound)
			},
			expectedCode:  http.StatusNotFound,
			expectedError: domain.ErrTaskNotFound.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.GrabTask(w, request(http.MethodPost, "/api/tasks/"+tt.id+"/grab", tt.id, nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusCreated {
				var body dto.SubmissionResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, 15, body.ID)
				assert.Equal(t, "pending_upload", body.Status)
				assert.Equal(t, &materialID, body.MaterialID)
				return
			}
			assert.Contains(t, w.Body.String(), tt.expectedError)
		})
	}
}

func TestListSubmissionsHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
		expectedLen  int
	}{
		{
			name: "Two submissions",
			prepareMock: func() {
				service.EXPECT().ListSubmissions(gomock.Any(), actor).Return([]domain.Submission{
					{ID: 1, Status: domain.SubmissionPending},
					{ID: 2, Status: domain.SubmissionApproved, FinalAmount: 11},
				}, nil)
			},
			expectedCode: http.StatusOK,
			expectedLen:  2,
		},
		{
			name: "Empty",
			prepareMock: func() {
				service.EXPECT().ListSubmissions(gomock.Any(), actor).Return([]domain.Submission{}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				service.EXPECT().ListSubmissions(gomock.Any(), actor).Return(nil, errors.New("db down"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.ListSubmissions(w, request(http.MethodGet, "/api/submissions", "", nil))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body []dto.SubmissionResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Len(t, body, tt.expectedLen)
			}
		})
	}
}

func evidenceBody(t *testing.T, data []byte, link string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if link != "" {
		require.NoError(t, mw.WriteField("link", link))
	}
	if data != nil {
		fw, err := mw.CreateFormFile("evidence", "shot.png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSubmitEvidenceHandler(t *testing.T) {
	handler, service, store := NewMock(t)
	shot := []byte("\x89PNG\r\n\x1a\nscreenshot")
	stored := &evidence.Stored{Ref: "submissions/abc.png", Fingerprint: evidence.Fingerprint(shot)}

	tests := []struct {
		name         string
		id           string
		data         []byte
		link         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Accepted",
			id:   "15",
			data: shot,
			link: "https://x.test/p/1",
			prepareMock: func() {
				store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, object *evidence.Object) (*evidence.Stored, error) {
						assert.Equal(t, "submissions", object.Prefix)
						assert.Equal(t, shot, object.Data)
						return stored, nil
					})
				service.EXPECT().
					SubmitEvidence(gomock.Any(), actor, 15, stored.Fingerprint, stored.Ref, "https://x.test/p/1").
					Return(&domain.Submission{ID: 15, Status: domain.SubmissionPending}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid id",
			id:           "x",
			data:         shot,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "File missing",
			id:           "15",
			link:         "https://x.test/p/1",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "File too large",
			id:           "15",
			data:         bytes.Repeat([]byte{7}, 2048),
			prepareMock:  func() {},
			expectedCode: http.StatusRequestEntityTooLarge,
		},
		{
			name: "Store failure",
			id:   "15",
			data: shot,
			prepareMock: func() {
				store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil, errors.New("disk full"))
			},
			expectedCode: http.StatusInternalServerError,
		},
		{
			name: "Duplicate evidence",
			id:   "15",
			data: shot,
			prepareMock: func() {
				store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(stored, nil)
				service.EXPECT().
					SubmitEvidence(gomock.Any(), actor, 15, stored.Fingerprint, stored.Ref, "").
					Return(nil, domain.ErrDuplicateFingerprint)
				store.EXPECT().Delete(gomock.Any(), stored.Ref).Return(nil)
			},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			body, contentType := evidenceBody(t, tt.data, tt.link)
			r := request(http.MethodPost, "/api/submissions/"+tt.id+"/evidence", tt.id, body)
			r.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()

			handler.SubmitEvidence(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestSubmitEvidenceHandler_RefusedUploadsLeaveNothing(t *testing.T) {
	dir := t.TempDir()
	store, err := evidence.NewLocalStore(dir, 1024)
	require.NoError(t, err)
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service, store, 1024)

	refusals := []error{domain.ErrDuplicateFingerprint, domain.ErrSubmissionNotFound, domain.ErrAlreadyApproved}
	for _, refusal := range refusals {
		service.EXPECT().SubmitEvidence(gomock.Any(), actor, 15, gomock.Any(), gomock.Any(), "").Return(nil, refusal)
	}
	service.EXPECT().SubmitEvidence(gomock.Any(), actor, 15, gomock.Any(), gomock.Any(), "").
		Return(&domain.Submission{ID: 15, Status: domain.SubmissionPending}, nil)

	for i := 0; i <= len(refusals); i++ {
		body, contentType := evidenceBody(t, []byte("\x89PNG\r\n\x1a\nscreenshot"), "")
		r := request(http.MethodPost, "/api/submissions/15/evidence", "15", body)
		r.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()

		handler.SubmitEvidence(w, r)

		if i < len(refusals) {
			assert.NotEqual(t, http.StatusOK, w.Code)
		} else {
			assert.Equal(t, http.StatusOK, w.Code)
		}
	}

	entries, err := os.ReadDir(filepath.Join(dir, "submissions"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestReleaseHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name         string
		id           string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Released",
			id:   "15",
			prepareMock: func() {
				service.EXPECT().ReleaseReservation(gomock.Any(), actor, 15).Return(nil)
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "Invalid id",
			id:           "0",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Evidence uploaded",
			id:   "15",
			prepareMock: func() {
				service.EXPECT().ReleaseReservation(gomock.Any(), actor, 15).Return(domain.ErrInvalidState)
			},
			expectedCode: http.StatusConflict,
		},
		{
			name: "Not own submission",
			id:   "15",
			prepareMock: func() {
				service.EXPECT().ReleaseReservation(gomock.Any(), actor, 15).Return(domain.ErrSubmissionNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.Release(w, request(http.MethodDelete, "/api/submissions/"+tt.id, tt.id, nil))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestAppealHandler(t *testing.T) {
	handler, service, _ := NewMock(t)

	tests := []struct {
		name         string
		body         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Appealing",
			body: `{"reason":"post is still online"}`,
			prepareMock: func() {
				service.EXPECT().Appeal(gomock.Any(), actor, 15, "post is still online").
					Return(&domain.Submission{ID: 15, Status: domain.SubmissionAppealing, AppealReason: "post is still online"}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid request body",
			body:         `{"reason":`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Empty reason",
			body: `{"reason":""}`,
			prepareMock: func() {
				service.EXPECT().Appeal(gomock.Any(), actor, 15, "").Return(nil, domain.ErrEmptyReason)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Not rejected",
			body: `{"reason":"again"}`,
			prepareMock: func() {
				service.EXPECT().Appeal(gomock.Any(), actor, 15, "again").Return(nil, domain.ErrNotEligible)
			},
			expectedCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			w := httptest.NewRecorder()
			handler.Appeal(w, request(http.MethodPost, "/api/submissions/15/appeal", "15", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				assert.True(t, strings.Contains(w.Body.String(), `"status":"appealing"`))
			}
		})
	}
}
