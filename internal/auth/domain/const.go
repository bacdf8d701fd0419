package domain

// Flow identifies which two-phase flow a verification token belongs to.
type Flow string

const (
	FlowLogin  Flow = "login"
	FlowSignup Flow = "signup"
)

// Action is the kind of event recorded in the activity log.
type Action string

const (
	ActionLogin              Action = "LOGIN"
	ActionLoginResendOTP     Action = "LOGIN_RESEND_OTP"
	ActionLoginValidOTP      Action = "LOGIN_VALID_OTP"
	ActionSignupValidOTP     Action = "SIGNUP_VALID_OTP"
	ActionRefreshAccessToken Action = "REFRESH_ACCESS_TOKEN"
	ActionGetUserInfo        Action = "GET_USER_INFO"
)

// Target is the entity an activity log entry refers to.
type Target string

const (
	TargetUser Target = "USER"
)
