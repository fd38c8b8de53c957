package protocol

// Wire type strings with protocol-defined effects. Anything outside this
// vocabulary is an open application-level message.
const (
	// Host → guest.
	TypeSetTheme      = "devwatch-set-theme"
	TypePing          = "pja-ping"
	TypeShowInfoPanel = "pja-show-infopanel"
	TypeHideInfoPanel = "pja-hide-infopanel"
	TypeSetCredits    = "pja-set-credits"
	TypeAuthResponse  = "pja-auth-response"
	TypePong          = "pja-pong"

	// Guest → host.
	TypeIframeReady = "devwatch-iframe-ready"
	TypeTitleUpdate = "devwatch-title-update"
	TypeGetTheme    = "pja-get-theme"
	TypeAuthCheck   = "pja-auth-check"
	TypeGameLog     = "pja-game-log"
	TypeGameUnload  = "pja-game-unload"
	TypeAssetInfo   = "pja-asset-info"
)

// Reserved is the closed enumeration of host→guest types with fixed effects.
// Keeping it an enum forces exhaustive handling in the guest dispatch switch.
type Reserved int

const (
	ReservedSetTheme Reserved = iota
	ReservedPing
	ReservedShowInfoPanel
	ReservedHideInfoPanel
	ReservedSetCredits
	ReservedAuthResponse
	ReservedPong
)

var reservedInbound = map[string]Reserved{
	TypeSetTheme:      ReservedSetTheme,
	TypePing:          ReservedPing,
	TypeShowInfoPanel: ReservedShowInfoPanel,
	TypeHideInfoPanel: ReservedHideInfoPanel,
	TypeSetCredits:    ReservedSetCredits,
	TypeAuthResponse:  ReservedAuthResponse,
	TypePong:          ReservedPong,
}

// ReservedFromType maps a host→guest type string onto the closed enum.
// The second return is false for open application types.
func ReservedFromType(msgType string) (Reserved, bool) {
	r, ok := reservedInbound[msgType]
	return r, ok
}

// GuestControl is the closed enumeration of guest→host control types.
type GuestControl int

const (
	ControlIframeReady GuestControl = iota
	ControlTitleUpdate
	ControlGetTheme
	ControlAuthCheck
	ControlGameLog
	ControlGameUnload
	ControlAssetInfo
	ControlPing
)

var guestControl = map[string]GuestControl{
	TypeIframeReady: ControlIframeReady,
	TypeTitleUpdate: ControlTitleUpdate,
	TypeGetTheme:    ControlGetTheme,
	TypeAuthCheck:   ControlAuthCheck,
	TypeGameLog:     ControlGameLog,
	TypeGameUnload:  ControlGameUnload,
	TypeAssetInfo:   ControlAssetInfo,
	TypePing:        ControlPing,
}

// GuestControlFromType maps a guest→host type string onto the closed enum.
func GuestControlFromType(msgType string) (GuestControl, bool) {
	c, ok := guestControl[msgType]
	return c, ok
}

// RequestIDKey is the payload key carrying the correlation id echoed between
// a request and its response.
const RequestIDKey = "request_id"
