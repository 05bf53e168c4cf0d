package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/service"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockWorkflowService is a mock implementation of service.WorkflowService
type MockWorkflowService struct {
	mock.Mock
}

func (m *MockWorkflowService) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockWorkflowService) Submit(ctx context.Context, in service.SubmitInput) (*model.Task, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockWorkflowService) Approve(ctx context.Context, in service.ApproveInput) (*model.Task, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockWorkflowService) Reject(ctx context.Context, in service.RejectInput) (*model.Task, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockWorkflowService) CompleteClientAction(ctx context.Context, in service.ClientActionInput) (*model.Task, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockWorkflowService) AttachDocument(ctx context.Context, in service.AttachDocumentInput) (*model.Document, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func setupTaskRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func actingMember(role string) *model.Member {
	return &model.Member{ID: uuid.New(), Name: "tester", Role: role}
}

func TestTaskHandler_GetTask(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		taskIDParam    string
		setup          func(*MockWorkflowService)
		expectedStatus int
	}{
		{
			name:        "successful task retrieval",
			taskIDParam: taskID.String(),
			setup: func(svc *MockWorkflowService) {
				svc.On("GetTask", mock.Anything, taskID).Return(&model.Task{ID: taskID, Name: "fieldwork"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid task ID",
			taskIDParam:    "invalid-uuid",
			setup:          func(svc *MockWorkflowService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "task not found",
			taskIDParam: taskID.String(),
			setup: func(svc *MockWorkflowService) {
				svc.On("GetTask", mock.Anything, taskID).Return(nil, apperr.NotFound("task"))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockWorkflowService{}
			tt.setup(mockService)

			handler := NewTaskHandler(mockService, nil)
			router := setupTaskRouter()
			router.GET("/task/:task_id", func(c *gin.Context) {
				c.Set("member", actingMember(model.RoleWorker))
				handler.GetTask(c)
			})

			req := httptest.NewRequest("GET", "/task/"+tt.taskIDParam, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_ApproveTask(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		actorRole      string
		requestBody    ApproveTaskReq
		setup          func(*MockWorkflowService)
		expectedStatus int
	}{
		{
			name:        "successful approval",
			actorRole:   model.RoleManager,
			requestBody: ApproveTaskReq{ExpectedVersion: 2},
			setup: func(svc *MockWorkflowService) {
				svc.On("Approve", mock.Anything, mock.MatchedBy(func(in service.ApproveInput) bool {
					return in.TaskID == taskID && in.ActorRole == model.RoleManager && in.ExpectedVersion == 2
				})).Return(&model.Task{ID: taskID}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "version conflict maps to 409",
			actorRole:   model.RoleManager,
			requestBody: ApproveTaskReq{ExpectedVersion: 1},
			setup: func(svc *MockWorkflowService) {
				svc.On("Approve", mock.Anything, mock.Anything).Return(nil, apperr.VersionConflict("task", 1))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:        "role mismatch maps to 403",
			actorRole:   model.RoleWorker,
			requestBody: ApproveTaskReq{ExpectedVersion: 2},
			setup: func(svc *MockWorkflowService) {
				svc.On("Approve", mock.Anything, mock.Anything).Return(nil, apperr.RoleMismatch(model.RoleWorker, model.RoleManager))
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:        "invalid transition maps to 422",
			actorRole:   model.RoleManager,
			requestBody: ApproveTaskReq{ExpectedVersion: 2},
			setup: func(svc *MockWorkflowService) {
				svc.On("Approve", mock.Anything, mock.Anything).Return(nil, apperr.InvalidTransition("task has no active approval level"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:        "unexpected error maps to 500",
			actorRole:   model.RoleManager,
			requestBody: ApproveTaskReq{ExpectedVersion: 2},
			setup: func(svc *MockWorkflowService) {
				svc.On("Approve", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockWorkflowService{}
			tt.setup(mockService)

			handler := NewTaskHandler(mockService, nil)
			router := setupTaskRouter()
			router.POST("/task/:task_id/approve", func(c *gin.Context) {
				c.Set("member", actingMember(tt.actorRole))
				handler.ApproveTask(c)
			})

			body, _ := sonic.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/task/"+taskID.String()+"/approve", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_RejectTask(t *testing.T) {
	taskID := uuid.New()

	tests := []struct {
		name           string
		requestBody    RejectTaskReq
		setup          func(*MockWorkflowService)
		expectedStatus int
	}{
		{
			name:        "successful rejection",
			requestBody: RejectTaskReq{ExpectedVersion: 2, Reason: "missing workpapers"},
			setup: func(svc *MockWorkflowService) {
				svc.On("Reject", mock.Anything, mock.MatchedBy(func(in service.RejectInput) bool {
					return in.TaskID == taskID && in.Reason == "missing workpapers"
				})).Return(&model.Task{ID: taskID}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing reason",
			requestBody:    RejectTaskReq{ExpectedVersion: 2},
			setup:          func(svc *MockWorkflowService) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockWorkflowService{}
			tt.setup(mockService)

			handler := NewTaskHandler(mockService, nil)
			router := setupTaskRouter()
			router.POST("/task/:task_id/reject", func(c *gin.Context) {
				c.Set("member", actingMember(model.RoleManager))
				handler.RejectTask(c)
			})

			body, _ := sonic.Marshal(tt.requestBody)
			req := httptest.NewRequest("POST", "/task/"+taskID.String()+"/reject", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_SubmitTask(t *testing.T) {
	taskID := uuid.New()

	t.Run("submit forwards actor and payload", func(t *testing.T) {
		mockService := &MockWorkflowService{}
		member := actingMember(model.RoleWorker)
		mockService.On("Submit", mock.Anything, mock.MatchedBy(func(in service.SubmitInput) bool {
			return in.TaskID == taskID && in.Actor == member.ID && in.Comments == "ready for review"
		})).Return(&model.Task{ID: taskID}, nil)

		handler := NewTaskHandler(mockService, nil)
		router := setupTaskRouter()
		router.POST("/task/:task_id/submit", func(c *gin.Context) {
			c.Set("member", member)
			handler.SubmitTask(c)
		})

		body, _ := sonic.Marshal(SubmitTaskReq{ExpectedVersion: 1, Comments: "ready for review"})
		req := httptest.NewRequest("POST", "/task/"+taskID.String()+"/submit", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})
}
