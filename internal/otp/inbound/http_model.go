package inbound

type RequestOtpRequest struct {
	UserID string `json:"user_id"`
}

type RequestOtpResponse struct{}

func (RequestOtpResponse) Message() string {
	return "A verification code has been sent to your email."
}

type VerifyOtpRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type VerifyOtpResponse struct{}

func (VerifyOtpResponse) Message() string {
	return "Verification successful."
}
