package constants

const (
	SSM_PATH               = "/apar"
	ALLOWED_ORIGINS        = "/apar/ALLOWED_ORIGINS"
	DATABASE_RDS_ENDPOINT  = "/apar/DATABASE_RDS_ENDPOINT"
	DATABASE_PORT          = "/apar/DATABASE_PORT"
	DATABASE_NAME          = "/apar/DATABASE_NAME"
	DATABASE_USERNAME      = "/apar/DATABASE_USERNAME"
	DATABASE_PASSWORD      = "/apar/DATABASE_PASSWORD"
	SSL_MODE               = "/apar/SSL_MODE"
	PHOTO_BUCKET           = "/apar/PHOTO_BUCKET"
	PHOTO_STORAGE_DIR      = "/apar/PHOTO_STORAGE_DIR"
	DUE_SOON_WINDOW_DAYS   = "/apar/DUE_SOON_WINDOW_DAYS"
	TIMEZONE               = "/apar/TIMEZONE"
	QR_SERVICE_URL         = "/apar/QR_SERVICE_URL"
	DRIVER_NAME            = "postgres"
	AWS_REGION             = "ap-southeast-3"
	LOCALSTACK_ENDPOINT    = "http://docker.for.mac.host.internal:4566"
	DEFAULT_QR_SERVICE_URL = "https://api.qrserver.com/v1/create-qr-code/"
)

// Photo evidence limits per submission
const (
	MAX_PHOTOS_PER_INSPECTION = 20
	MAX_PHOTO_BYTES           = 10 << 20
)
