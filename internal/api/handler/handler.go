package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/RoyceAzure/lab/bikemarket/internal/constants"
	"github.com/RoyceAzure/lab/bikemarket/internal/service"
	"github.com/RoyceAzure/lab/bikemarket/internal/util"
	"github.com/RoyceAzure/rj/api"
	er "github.com/RoyceAzure/rj/util/rj_error"
	"github.com/go-chi/chi/v5"
)

// writeError 服務層錯誤種類對應到 api 錯誤碼
func writeError(w http.ResponseWriter, err error) {
	code := er.InternalErrorCode
	switch {
	case errors.Is(err, service.ErrValidation):
		code = er.BadRequestCode
	case errors.Is(err, service.ErrNotFound):
		code = er.NotFoundCode
	case errors.Is(err, service.ErrPermission):
		code = er.UnauthorizedCode
	}
	api.ErrorJSON(w, int(code), err, er.ErrStrMap[code])
}

func badRequest(w http.ResponseWriter, err error) {
	api.ErrorJSON(w, int(er.BadRequestCode), err, er.ErrStrMap[er.BadRequestCode])
}

// currentActor 只在 AuthMiddleware 之後的路由使用
func currentActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	payload := util.GetTokenPayloadFromContext(r.Context())
	if payload == nil {
		api.ErrorJSON(w, int(er.UnauthenticatedCode), errors.New("token is invalidate"), er.ErrStrMap[er.UnauthenticatedCode])
		return service.Actor{}, false
	}
	return service.Actor{UserID: payload.UserID, IsStaff: payload.IsStaff}, true
}

func uintParam(r *http.Request, name string) (uint, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(v), nil
}

func optionalInt64Query(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &v, nil
}

func uintListQuery(r *http.Request, name string) ([]uint, error) {
	var ids []uint
	for _, raw := range r.URL.Query()[name] {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s", name)
		}
		ids = append(ids, uint(v))
	}
	return ids, nil
}

// decodeJSON 空 body 視為零值
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// readUploads 讀出 multipart 表單中同名欄位的所有檔案
func readUploads(r *http.Request, field string) ([]service.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	uploads := make([]service.ImageUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		if fh.Size > constants.MaxUploadSize {
			f.Close()
			return nil, fmt.Errorf("%w: file %q exceeds %d bytes", service.ErrValidation, fh.Filename, constants.MaxUploadSize)
		}
		data, err := io.ReadAll(io.LimitReader(f, constants.MaxUploadSize+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > constants.MaxUploadSize {
			return nil, fmt.Errorf("%w: file %q exceeds %d bytes", service.ErrValidation, fh.Filename, constants.MaxUploadSize)
		}
		uploads = append(uploads, service.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

// parseMultipart 超過 MaxRequestBodySize 的請求直接失敗
func parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxRequestBodySize)
	return r.ParseMultipartForm(constants.MaxUploadSize)
}
