// Package mock provides mock implementations of the repository and
// storage interfaces for testing.
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/class-inspect/internal/repository"
	"github.com/class-inspect/pkg/model"
)

// MockScanRepository is a mock implementation of the ScanRepository
// interface.
type MockScanRepository struct {
	mock.Mock
}

// SaveScan mocks the SaveScan method.
func (m *MockScanRepository) SaveScan(ctx context.Context, report *model.ScanReport) (int64, error) {
	args := m.Called(ctx, report)
	return args.Get(0).(int64), args.Error(1)
}

// GetScan mocks the GetScan method.
func (m *MockScanRepository) GetScan(ctx context.Context, id int64) (*model.ScanReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ScanReport), args.Error(1)
}

// ListScans mocks the ListScans method.
func (m *MockScanRepository) ListScans(ctx context.Context, limit int) ([]*repository.ScanListing, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*repository.ScanListing), args.Error(1)
}

// DeleteScan mocks the DeleteScan method.
func (m *MockScanRepository) DeleteScan(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// ExpectSaveScan sets up an expectation for SaveScan.
func (m *MockScanRepository) ExpectSaveScan(id int64, err error) *mock.Call {
	return m.On("SaveScan", mock.Anything, mock.Anything).Return(id, err)
}

// ExpectGetScan sets up an expectation for GetScan.
func (m *MockScanRepository) ExpectGetScan(id int64, report *model.ScanReport, err error) *mock.Call {
	return m.On("GetScan", mock.Anything, id).Return(report, err)
}

// ExpectListScans sets up an expectation for ListScans.
func (m *MockScanRepository) ExpectListScans(limit int, listings []*repository.ScanListing, err error) *mock.Call {
	return m.On("ListScans", mock.Anything, limit).Return(listings, err)
}

// ExpectDeleteScan sets up an expectation for DeleteScan.
func (m *MockScanRepository) ExpectDeleteScan(id int64, err error) *mock.Call {
	return m.On("DeleteScan", mock.Anything, id).Return(err)
}

// MockClassRepository is a mock implementation of the ClassRepository
// interface.
type MockClassRepository struct {
	mock.Mock
}

// SaveClasses mocks the SaveClasses method.
func (m *MockClassRepository) SaveClasses(ctx context.Context, scanID int64, summaries []*model.ClassSummary) error {
	args := m.Called(ctx, scanID, summaries)
	return args.Error(0)
}

// GetClass mocks the GetClass method.
func (m *MockClassRepository) GetClass(ctx context.Context, scanID int64, className string) (*model.ClassSummary, error) {
	args := m.Called(ctx, scanID, className)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ClassSummary), args.Error(1)
}

// ListClasses mocks the ListClasses method.
func (m *MockClassRepository) ListClasses(ctx context.Context, scanID int64, limit, offset int) ([]*model.ClassSummary, error) {
	args := m.Called(ctx, scanID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.ClassSummary), args.Error(1)
}

// CountClasses mocks the CountClasses method.
func (m *MockClassRepository) CountClasses(ctx context.Context, scanID int64) (int64, error) {
	args := m.Called(ctx, scanID)
	return args.Get(0).(int64), args.Error(1)
}

// ExpectSaveClasses sets up an expectation for SaveClasses.
func (m *MockClassRepository) ExpectSaveClasses(scanID int64, err error) *mock.Call {
	return m.On("SaveClasses", mock.Anything, scanID, mock.Anything).Return(err)
}

// ExpectGetClass sets up an expectation for GetClass.
func (m *MockClassRepository) ExpectGetClass(scanID int64, className string, summary *model.ClassSummary, err error) *mock.Call {
	return m.On("GetClass", mock.Anything, scanID, className).Return(summary, err)
}

// ExpectCountClasses sets up an expectation for CountClasses.
func (m *MockClassRepository) ExpectCountClasses(scanID int64, count int64, err error) *mock.Call {
	return m.On("CountClasses", mock.Anything, scanID).Return(count, err)
}
