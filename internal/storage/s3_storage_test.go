package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_PresignUpload(t *testing.T) {
	s := NewS3Storage("ap-northeast-2", "crm-test", "AKIATEST", "secret", "")

	resp, err := s.PresignUpload(context.Background(), FolderPropertyImages, "거실.JPG", "image/jpeg")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Key, "properties/"))
	assert.True(t, strings.HasSuffix(resp.Key, ".jpg"))
	assert.Contains(t, resp.UploadURL, "crm-test")
	assert.Contains(t, resp.UploadURL, "X-Amz-Signature")
	assert.Equal(t, "https://crm-test.s3.ap-northeast-2.amazonaws.com/"+resp.Key, resp.FileURL)
}

func TestS3Storage_FileURL_WithBaseURL(t *testing.T) {
	s := NewS3Storage("ap-northeast-2", "crm-test", "AKIATEST", "secret", "https://cdn.example.com/")
	assert.Equal(t, "https://cdn.example.com/contracts/a.pdf", s.FileURL("contracts/a.pdf"))
}

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType(FolderContractAttachments, "application/pdf"))
	assert.ErrorIs(t, ValidateContentType(FolderPropertyImages, "application/pdf"), ErrContentTypeNotAllowed)
	assert.ErrorIs(t, ValidateContentType("unknown", "image/png"), ErrContentTypeNotAllowed)
}

func TestValidateFileSize(t *testing.T) {
	assert.NoError(t, ValidateFileSize(10, 10))
	assert.ErrorIs(t, ValidateFileSize(11, 10), ErrFileTooLarge)
}
