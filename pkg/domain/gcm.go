package domain

// GCMFlag is a Google Consent Mode flag value.
type GCMFlag string

const (
	GCMGranted GCMFlag = "granted"
	GCMDenied  GCMFlag = "denied"
)

// Granted reports whether the flag carries the granted value.
func (f GCMFlag) Granted() bool { return f == GCMGranted }

// GCMFlags is the Google Consent Mode projection of a consent state. It is
// derived, never stored: clients consume it, the stored choices remain the
// source of truth.
type GCMFlags struct {
	AdUserData        GCMFlag `json:"ad_user_data"`
	AdPersonalization GCMFlag `json:"ad_personalization"`
	AnalyticsStorage  GCMFlag `json:"analytics_storage"`
}

// AllDenied is the projection under an active GPC signal: the opt-out forces
// every flag to denied regardless of stored choices.
func AllDenied() GCMFlags {
	return GCMFlags{
		AdUserData:        GCMDenied,
		AdPersonalization: GCMDenied,
		AnalyticsStorage:  GCMDenied,
	}
}

// ProjectGCM maps purpose grants to consent mode flags. GPC is a hard
// override: when active all flags are denied, mirroring the runtime
// resolver's vendor collapse.
func ProjectGCM(adsAllowed, analyticsAllowed, gpc bool) GCMFlags {
	if gpc {
		return AllDenied()
	}
	flags := AllDenied()
	if adsAllowed {
		flags.AdUserData = GCMGranted
		flags.AdPersonalization = GCMGranted
	}
	if analyticsAllowed {
		flags.AnalyticsStorage = GCMGranted
	}
	return flags
}
