package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RoyceAzure/lab/bikemarket/internal/constants"
	"github.com/RoyceAzure/lab/bikemarket/internal/domain/model"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/lab/bikemarket/internal/util/token"
	er "github.com/RoyceAzure/rj/util/rj_error"
	"github.com/stretchr/testify/require"
)

// recordingCatalog 只實作 CreateListing, 其餘方法呼叫會 panic
type recordingCatalog struct {
	service.ICatalogService
	uploads [][]service.ImageUpload
}

func (c *recordingCatalog) CreateListing(_ context.Context, owner service.Actor, in service.ListingInput, uploads []service.ImageUpload) (*model.Listing, error) {
	c.uploads = append(c.uploads, uploads)
	return &model.Listing{ID: 1, Name: in.Name, OwnerID: owner.UserID}, nil
}

func sellRequest(t *testing.T, size int64) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "gravel"))
	require.NoError(t, mw.WriteField("price", "900"))
	require.NoError(t, mw.WriteField("description", "dusty"))
	require.NoError(t, mw.WriteField("category_id", "1"))
	fw, err := mw.CreateFormFile("images", "big.jpg")
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte{0xff}, int(size)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sell", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	payload := &token.Payload{UserID: 5}
	return req.WithContext(context.WithValue(req.Context(), constants.AuthorizationPayloadKey, payload))
}

func TestCreateListingRejectsOversizedImage(t *testing.T) {
	catalog := &recordingCatalog{}
	h := NewListingHandler(catalog)

	rec := httptest.NewRecorder()
	h.CreateListing(rec, sellRequest(t, constants.MaxUploadSize+1024))
	require.Equal(t, int(er.BadRequestCode), rec.Code)
	require.Empty(t, catalog.uploads)
}

func TestCreateListingAcceptsSmallImage(t *testing.T) {
	catalog := &recordingCatalog{}
	h := NewListingHandler(catalog)

	rec := httptest.NewRecorder()
	h.CreateListing(rec, sellRequest(t, 2048))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, catalog.uploads, 1)
	require.Len(t, catalog.uploads[0], 1)
	require.Len(t, catalog.uploads[0][0].Data, 2048)
}
