package catalog

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHandler_ListServices(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		query     string
		setupMock func(*MockRepository)
		status    int
	}{
		{
			name:  "all services",
			query: "",
			setupMock: func(m *MockRepository) {
				m.On("ListServices", mock.Anything, Category("")).Return([]Service{{Name: "MTN 1GB"}}, nil)
			},
			status: http.StatusOK,
		},
		{
			name:      "unknown category",
			query:     "?category=gift_card",
			setupMock: func(m *MockRepository) {},
			status:    http.StatusBadRequest,
		},
		{
			name:  "storage failure",
			query: "?category=data",
			setupMock: func(m *MockRepository) {
				m.On("ListServices", mock.Anything, CategoryData).Return(nil, errors.New("down"))
			},
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setupMock(repo)

			router := gin.New()
			router.GET("/services", NewHandler(repo).ListServices)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/services"+tt.query, nil))

			assert.Equal(t, tt.status, w.Code)
			repo.AssertExpectations(t)
		})
	}
}
