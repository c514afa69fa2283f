package leave_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveService struct {
	CreateFn         func(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveResponse, error)
	GetAllFn         func(ctx context.Context, employeeID string) ([]leave.LeaveResponse, error)
	GetByIDFn        func(ctx context.Context, id string) (leave.LeaveResponse, error)
	ApproveFn        func(ctx context.Context, id, approverID string) (leave.LeaveResponse, error)
	RejectFn         func(ctx context.Context, id, approverID string) (leave.LeaveResponse, error)
	DeleteFn         func(ctx context.Context, id string) error
	StatsFn          func(ctx context.Context) (leave.LeaveStats, error)
	AttachDocumentFn func(ctx context.Context, id, filename string, data []byte) (leave.LeaveResponse, error)
}

func (f *fakeLeaveService) Create(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
	return f.CreateFn(ctx, req)
}
func (f *fakeLeaveService) GetAll(ctx context.Context, employeeID string) ([]leave.LeaveResponse, error) {
	return f.GetAllFn(ctx, employeeID)
}
func (f *fakeLeaveService) GetByID(ctx context.Context, id string) (leave.LeaveResponse, error) {
	return f.GetByIDFn(ctx, id)
}
func (f *fakeLeaveService) Approve(ctx context.Context, id, approverID string) (leave.LeaveResponse, error) {
	return f.ApproveFn(ctx, id, approverID)
}
func (f *fakeLeaveService) Reject(ctx context.Context, id, approverID string) (leave.LeaveResponse, error) {
	return f.RejectFn(ctx, id, approverID)
}
func (f *fakeLeaveService) Delete(ctx context.Context, id string) error {
	return f.DeleteFn(ctx, id)
}
func (f *fakeLeaveService) Stats(ctx context.Context) (leave.LeaveStats, error) {
	return f.StatsFn(ctx)
}
func (f *fakeLeaveService) AttachDocument(ctx context.Context, id, filename string, data []byte) (leave.LeaveResponse, error) {
	return f.AttachDocumentFn(ctx, id, filename, data)
}

func init() {
	gin.SetMode(gin.TestMode)
	apperror.Init()
}

func TestLeaveHandler_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			CreateFn: func(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				assert.Equal(t, "EMP-1", req.EmployeeID)
				return leave.LeaveResponse{
					ID:         uuid.New().String(),
					EmployeeID: req.EmployeeID,
					LeaveType:  "CL",
					Status:     leave.StatusPending,
					TotalDays:  3,
				}, nil
			},
		}

		h := leave.NewHandler(svc)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		body := `{"employee_id":"EMP-1","leave_type":"CL","start_date":"2027-03-01","end_date":"2027-03-03","reason":"Family event"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req

		h.Create(c)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"ok":true`)
		assert.Contains(t, w.Body.String(), leave.StatusPending)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := &fakeLeaveService{}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", strings.NewReader(`{"employee_id":"EMP-1"}`))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req

		h.Create(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeInvalidInput)
	})

	t.Run("insufficient balance surfaces as 422", func(t *testing.T) {
		svc := &fakeLeaveService{
			CreateFn: func(ctx context.Context, req leave.CreateLeaveRequest) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.InsufficientBalance("CL", 2, 3)
			},
		}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		body := `{"employee_id":"EMP-1","leave_type":"CL","start_date":"2027-03-01","end_date":"2027-03-03","reason":"Family event"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req

		h.Create(c)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeInsufficientBalance)
	})
}

func TestLeaveHandler_GetByID(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		svc := &fakeLeaveService{
			GetByIDFn: func(ctx context.Context, id string) (leave.LeaveResponse, error) {
				return leave.LeaveResponse{}, leaveerrors.ErrLeaveNotFound
			},
		}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/leaves/"+uuid.New().String(), nil)
		c.Params = gin.Params{{Key: "id", Value: uuid.New().String()}}

		h.GetByID(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), apperror.CodeNotFound)
		assert.Contains(t, w.Body.String(), `"ok":false`)
	})
}

func TestLeaveHandler_Approve(t *testing.T) {
	leaveID := uuid.New().String()

	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{
			ApproveFn: func(ctx context.Context, id, approverID string) (leave.LeaveResponse, error) {
				assert.Equal(t, leaveID, id)
				assert.Equal(t, "MGR-9", approverID)
				return leave.LeaveResponse{ID: id, Status: leave.StatusApproved}, nil
			},
		}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/approve", strings.NewReader(`{"approved_by":"MGR-9"}`))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: leaveID}}

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), leave.StatusApproved)
	})

	t.Run("missing approver", func(t *testing.T) {
		svc := &fakeLeaveService{}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/approve", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: leaveID}}

		h.Approve(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLeaveHandler_GetAll(t *testing.T) {
	t.Run("paginates", func(t *testing.T) {
		all := make([]leave.LeaveResponse, 15)
		for i := range all {
			all[i] = leave.LeaveResponse{ID: uuid.New().String(), EmployeeID: "EMP-1"}
		}

		svc := &fakeLeaveService{
			GetAllFn: func(ctx context.Context, employeeID string) ([]leave.LeaveResponse, error) {
				assert.Equal(t, "EMP-1", employeeID)
				return all, nil
			},
		}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/leaves?employee_id=EMP-1&page=2&page_size=10", nil)

		h.GetAll(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total":15`)
		assert.Contains(t, w.Body.String(), `"page":2`)
	})
}

func TestLeaveHandler_AttachDocument(t *testing.T) {
	leaveID := uuid.New().String()

	t.Run("uploads multipart file", func(t *testing.T) {
		svc := &fakeLeaveService{
			AttachDocumentFn: func(ctx context.Context, id, filename string, data []byte) (leave.LeaveResponse, error) {
				assert.Equal(t, leaveID, id)
				assert.Equal(t, "note.pdf", filename)
				assert.Equal(t, []byte("hello"), data)
				ref := leaveID + "/note.pdf"
				return leave.LeaveResponse{ID: id, DocumentRef: &ref}, nil
			},
		}
		h := leave.NewHandler(svc)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("document", "note.pdf")
		assert.NoError(t, err)
		_, err = fw.Write([]byte("hello"))
		assert.NoError(t, err)
		assert.NoError(t, mw.Close())

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/document", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		c.Request = req
		c.Params = gin.Params{{Key: "id", Value: leaveID}}

		h.AttachDocument(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "note.pdf")
	})

	t.Run("missing file", func(t *testing.T) {
		svc := &fakeLeaveService{}
		h := leave.NewHandler(svc)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/leaves/"+leaveID+"/document", nil)
		c.Params = gin.Params{{Key: "id", Value: leaveID}}

		h.AttachDocument(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
