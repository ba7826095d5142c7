package constants

import "time"

const (
	//分頁
	DefaultPagingSize int = 12
	DefaultPaging     int = 1

	MaxUploadSize int64 = 32 << 20
	// 整個 multipart 請求的上限, 可容納多張圖片
	MaxRequestBodySize int64 = 4 * MaxUploadSize
)

// for api auth
type ContextKey string

const (
	AuthorizationHeaderKey  ContextKey = "authorization"
	AuthorizationTypeBearer ContextKey = "bearer"
	AuthorizationPayloadKey ContextKey = "authorization_payload"
	SessionIDKey            ContextKey = "session_id"
)

// 購物車 session
const (
	SessionCookieName = "sessionid"
	SessionTTL        = 14 * 24 * time.Hour
)

type ENV string

const (
	Debug ENV = "debug"
	Dev   ENV = "development"
	Stag  ENV = "staging"
	Prod  ENV = "production"
)

type RequestID string

const (
	RequestIDKey RequestID = "request_id"
)
