// internal/workers/drive/upload-proposal-file/service_test.go
package uploadproposalfile

import (
	"context"
	"encoding/base64"
	"testing"

	"bidbuddy-workers/internal/common/errors"
	"bidbuddy-workers/internal/common/googledrive"
	"bidbuddy-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock Implementations

type uploadCall struct {
	accessToken string
	folderID    string
	name        string
	contentType string
	data        []byte
}

type MockDriveService struct {
	ListFoldersFunc      func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error)
	FindFolderByNameFunc func(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error)
	CreateFolderFunc     func(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error)
	UploadFileFunc       func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error)

	uploads []uploadCall
}

func (m *MockDriveService) ListFolders(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
	return m.ListFoldersFunc(ctx, accessToken, parentID)
}

func (m *MockDriveService) FindFolderByName(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error) {
	return m.FindFolderByNameFunc(ctx, accessToken, parentID, name)
}

func (m *MockDriveService) CreateFolder(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error) {
	return m.CreateFolderFunc(ctx, accessToken, parentID, name)
}

func (m *MockDriveService) UploadFile(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
	m.uploads = append(m.uploads, uploadCall{accessToken, folderID, name, contentType, data})
	return m.UploadFileFunc(ctx, accessToken, folderID, name, contentType, data)
}

type MockGoogleService struct {
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error)
	refreshCalls     int
}

func (m *MockGoogleService) RefreshToken(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
	m.refreshCalls++
	return m.RefreshTokenFunc(ctx, refreshToken)
}

func createTestService(t *testing.T, drive DriveService, google GoogleTokenService) (*Service, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := NewService(ServiceDependencies{
		Drive:  drive,
		Google: google,
		DB:     db,
		Logger: logger.NewTestLogger(t),
	}, DefaultConfig())

	return service, dbMock
}

func expectProfile(dbMock sqlmock.Sqlmock) {
	dbMock.ExpectQuery("SELECT google_access_token, google_refresh_token, drive_root_folder_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"google_access_token", "google_refresh_token", "drive_root_folder_id"}).
			AddRow("access-token", "refresh-token", "root-folder"))
}

func projectFolders() []googledrive.File {
	return []googledrive.File{
		{ID: "folder-elm", Name: "Elm Street Office Building"},
		{ID: "folder-river", Name: "Riverside Clinic"},
	}
}

func uploadedFile(id string) *googledrive.File {
	return &googledrive.File{ID: id, Name: "uploaded"}
}

func validInput() *Input {
	return &Input{
		UserID:      "user-1",
		ProjectName: "Elm Street Office",
		TradeName:   "Plumbing",
		CompanyName: "Apex Mechanical",
		Filename:    "proposal final.pdf",
		Content:     base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 test")),
	}
}

// Tests

func TestExecute_UploadsToMatchedFolder(t *testing.T) {
	drive := &MockDriveService{
		ListFoldersFunc: func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
			assert.Equal(t, "access-token", accessToken)
			assert.Equal(t, "root-folder", parentID)
			return projectFolders(), nil
		},
		UploadFileFunc: func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
			return uploadedFile("file-1"), nil
		},
	}
	service, dbMock := createTestService(t, drive, &MockGoogleService{})

	expectProfile(dbMock)

	output, err := service.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, output.Success)
	assert.Equal(t, "file-1", output.FileID)
	assert.Equal(t, "folder-elm", output.FolderID)
	assert.Equal(t, "Elm Street Office Building", output.FolderName)
	assert.False(t, output.UsedFallback)
	assert.NotEmpty(t, output.UploadedAt)

	require.Len(t, drive.uploads, 1)
	call := drive.uploads[0]
	assert.Equal(t, "folder-elm", call.folderID)
	assert.Equal(t, "Plumbing_Apex Mechanical.pdf", call.name)
	assert.Equal(t, "application/pdf", call.contentType)
	assert.Equal(t, []byte("%PDF-1.4 test"), call.data)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_FallsBackToUncertainBids(t *testing.T) {
	drive := &MockDriveService{
		ListFoldersFunc: func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
			return projectFolders(), nil
		},
		FindFolderByNameFunc: func(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error) {
			assert.Equal(t, "Uncertain Bids", name)
			return &googledrive.File{ID: "folder-uncertain", Name: "Uncertain Bids"}, nil
		},
		UploadFileFunc: func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
			return uploadedFile("file-1"), nil
		},
	}
	service, dbMock := createTestService(t, drive, &MockGoogleService{})

	expectProfile(dbMock)

	input := validInput()
	input.ProjectName = "Harborview Parking Garage"

	output, err := service.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.True(t, output.UsedFallback)
	assert.Equal(t, "folder-uncertain", output.FolderID)
	assert.Equal(t, "Uncertain Bids", output.FolderName)
}

func TestExecute_CreatesFallbackFolderWhenMissing(t *testing.T) {
	created := false
	drive := &MockDriveService{
		ListFoldersFunc: func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
			return nil, nil
		},
		FindFolderByNameFunc: func(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error) {
			return nil, nil
		},
		CreateFolderFunc: func(ctx context.Context, accessToken, parentID, name string) (*googledrive.File, error) {
			created = true
			assert.Equal(t, "root-folder", parentID)
			assert.Equal(t, "Uncertain Bids", name)
			return &googledrive.File{ID: "folder-new", Name: name}, nil
		},
		UploadFileFunc: func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
			return uploadedFile("file-1"), nil
		},
	}
	service, dbMock := createTestService(t, drive, &MockGoogleService{})

	expectProfile(dbMock)

	output, err := service.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, output.UsedFallback)
	assert.Equal(t, "folder-new", output.FolderID)
}

func TestExecute_RetriesUploadAfterTokenRefresh(t *testing.T) {
	attempts := 0
	drive := &MockDriveService{
		ListFoldersFunc: func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
			return projectFolders(), nil
		},
		UploadFileFunc: func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
			attempts++
			if attempts == 1 {
				return nil, &googledrive.APIError{StatusCode: 401, Body: `{"error": "invalid_token"}`}
			}
			return uploadedFile("file-1"), nil
		},
	}
	google := &MockGoogleService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			assert.Equal(t, "refresh-token", refreshToken)
			return &googledrive.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600}, nil
		},
	}
	service, dbMock := createTestService(t, drive, google)

	expectProfile(dbMock)
	dbMock.ExpectExec("UPDATE profiles").
		WithArgs("user-1", "fresh-token", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	output, err := service.Execute(context.Background(), validInput())

	require.NoError(t, err)
	assert.True(t, output.Success)
	require.Len(t, drive.uploads, 2)
	assert.Equal(t, "access-token", drive.uploads[0].accessToken)
	assert.Equal(t, "fresh-token", drive.uploads[1].accessToken)
	assert.Equal(t, 1, google.refreshCalls)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestExecute_SecondAuthFailureSurfacesAuthExpired(t *testing.T) {
	drive := &MockDriveService{
		ListFoldersFunc: func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
			return projectFolders(), nil
		},
		UploadFileFunc: func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
			return nil, &googledrive.APIError{StatusCode: 401, Body: `{"error": "invalid_token"}`}
		},
	}
	google := &MockGoogleService{
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*googledrive.TokenResponse, error) {
			return &googledrive.TokenResponse{AccessToken: "fresh-token", ExpiresIn: 3600}, nil
		},
	}
	service, dbMock := createTestService(t, drive, google)

	expectProfile(dbMock)
	dbMock.ExpectExec("UPDATE profiles").
		WithArgs("user-1", "fresh-token", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := service.Execute(context.Background(), validInput())

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDriveAuthExpired, stdErr.Code)
	assert.Equal(t, 1, google.refreshCalls)
	require.Len(t, drive.uploads, 2)
}

func TestExecute_NoRefreshTokenMeansAuthExpired(t *testing.T) {
	drive := &MockDriveService{
		ListFoldersFunc: func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
			return projectFolders(), nil
		},
		UploadFileFunc: func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
			return nil, &googledrive.APIError{StatusCode: 401, Body: `{"error": "invalid_token"}`}
		},
	}
	google := &MockGoogleService{}
	service, dbMock := createTestService(t, drive, google)

	dbMock.ExpectQuery("SELECT google_access_token, google_refresh_token, drive_root_folder_id").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"google_access_token", "google_refresh_token", "drive_root_folder_id"}).
			AddRow("access-token", nil, "root-folder"))

	_, err := service.Execute(context.Background(), validInput())

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDriveAuthExpired, stdErr.Code)
	assert.Equal(t, 0, google.refreshCalls)
}

func TestExecute_UploadErrorNotAuth(t *testing.T) {
	drive := &MockDriveService{
		ListFoldersFunc: func(ctx context.Context, accessToken, parentID string) ([]googledrive.File, error) {
			return projectFolders(), nil
		},
		UploadFileFunc: func(ctx context.Context, accessToken, folderID, name, contentType string, data []byte) (*googledrive.File, error) {
			return nil, &googledrive.APIError{StatusCode: 500, Body: `{"error": "backend"}`}
		},
	}
	service, dbMock := createTestService(t, drive, &MockGoogleService{})

	expectProfile(dbMock)

	_, err := service.Execute(context.Background(), validInput())

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeDriveUploadFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
}

func TestExecute_InvalidBase64Content(t *testing.T) {
	service, _ := createTestService(t, &MockDriveService{}, &MockGoogleService{})

	input := validInput()
	input.Content = "not base64!!!"

	_, err := service.Execute(context.Background(), input)

	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorCode("VALIDATION_FAILED"), stdErr.Code)
}

func TestExecute_ValidationErrors(t *testing.T) {
	service, _ := createTestService(t, &MockDriveService{}, &MockGoogleService{})

	base := validInput()
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{name: "missing user id", mutate: func(i *Input) { i.UserID = "" }},
		{name: "missing project name", mutate: func(i *Input) { i.ProjectName = "" }},
		{name: "missing filename", mutate: func(i *Input) { i.Filename = "" }},
		{name: "missing content", mutate: func(i *Input) { i.Content = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := *base
			tt.mutate(&input)

			_, err := service.Execute(context.Background(), &input)

			require.Error(t, err)
			stdErr, ok := err.(*errors.StandardError)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorCode("VALIDATION_FAILED"), stdErr.Code)
		})
	}
}

func TestFolderScore(t *testing.T) {
	tests := []struct {
		name    string
		project string
		folder  string
		min     float64
		max     float64
	}{
		{name: "exact match", project: "Elm Street", folder: "Elm Street", min: 1.0, max: 1.0},
		{name: "case insensitive", project: "elm street", folder: "ELM STREET", min: 1.0, max: 1.0},
		{name: "containment boosted", project: "Elm Street", folder: "Elm Street Office Building", min: 0.8, max: 1.0},
		{name: "near miss typo", project: "Riverside Clinic", folder: "Riverside Clinics", min: 0.9, max: 1.0},
		{name: "unrelated", project: "Elm Street", folder: "Harborview Garage", min: 0.0, max: 0.4},
		{name: "empty folder name", project: "Elm Street", folder: "", min: 0.0, max: 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := folderScore(tt.project, tt.folder)
			assert.GreaterOrEqual(t, score, tt.min)
			assert.LessOrEqual(t, score, tt.max)
		})
	}
}

func TestBuildUploadName(t *testing.T) {
	tests := []struct {
		name     string
		trade    string
		company  string
		original string
		want     string
	}{
		{name: "pdf kept", trade: "Plumbing", company: "Apex Mechanical", original: "bid.pdf", want: "Plumbing_Apex Mechanical.pdf"},
		{name: "docx kept", trade: "Electrical", company: "Volt Co", original: "Proposal.DOCX", want: "Electrical_Volt Co.docx"},
		{name: "unknown extension collapses to pdf", trade: "Roofing", company: "TopSeal", original: "bid.zip", want: "Roofing_TopSeal.pdf"},
		{name: "no extension", trade: "Roofing", company: "TopSeal", original: "bid", want: "Roofing_TopSeal.pdf"},
		{name: "separators cleaned", trade: "Heating/Cooling", company: `Acme: East\West`, original: "bid.pdf", want: "Heating-Cooling_Acme- East-West.pdf"},
		{name: "missing parts default", trade: "", company: "", original: "bid.pdf", want: "unknown_unknown.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, buildUploadName(tt.trade, tt.company, tt.original))
		})
	}
}
