package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/campuscompanion/core/fetchcache"
	"github.com/trezcool/campuscompanion/core/portal"
)

const profileUnavailable = "Profile not available"

type ProfileService struct {
	client portal.Client
	info   *fetchcache.Cache[portal.PersonalInfo]
}

func newProfileService(client portal.Client, nc cacheFactory) *ProfileService {
	return &ProfileService{
		client: client,
		info:   newCache[portal.PersonalInfo](nc, "profile"),
	}
}

type ProfileView struct {
	portal.PersonalInfo
	Unavailable string `json:"unavailable,omitempty"`
}

// Profile returns the student's personal information, fetched once per session.
func (s *ProfileService) Profile(ctx context.Context) (ProfileView, error) {
	e, err := s.info.Load(ctx, singletonKey, s.client.PersonalInfo)
	if err != nil {
		return ProfileView{}, errors.Wrap(err, "loading profile")
	}
	v := ProfileView{PersonalInfo: e.Value}
	if e.IsMissing() {
		v.Unavailable = profileUnavailable
	}
	if v.Qualifications == nil {
		v.Qualifications = []portal.Qualification{}
	}
	return v, nil
}
