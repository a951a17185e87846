package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk/internal/domain"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func TestSubsectionsStayInOwnDepartment(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()

	_, err := s.subsection.Create(ctx, s.a, "Room 7")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	sub, err := s.subsection.Create(ctx, s.a, "Heating")
	require.NoError(t, err)
	assert.Equal(t, s.dept.ID, sub.DepartmentID)

	_, err = s.subsection.Create(ctx, s.b, "Heating")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	foreign := s.store.AddSubsection(s.other.ID, "Fees")
	_, err = s.subsection.Rename(ctx, s.a, foreign.ID, "Charges")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	renamed, err := s.subsection.Rename(ctx, s.b, sub.ID, "Heating and Water")
	require.NoError(t, err)
	assert.Equal(t, "Heating and Water", renamed.Name)

	subs, err := s.subsection.List(ctx, s.a)
	require.NoError(t, err)
	require.Len(t, subs, 1)

	require.NoError(t, s.subsection.Delete(ctx, s.a, sub.ID))
	err = s.subsection.Delete(ctx, s.a, sub.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	unassigned := s.store.AddUser("new@uni.test", domain.RoleSpecialist)
	_, err = s.subsection.List(ctx, unassigned)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestFAQAuthoring(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	heating := s.store.AddSubsection(s.dept.ID, "Heating")
	fees := s.store.AddSubsection(s.other.ID, "Fees")

	_, err := s.faq.Create(ctx, s.a, FAQInput{SubsectionID: fees.ID, Question: "Q?", Answer: "A."})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = s.faq.Create(ctx, s.a, FAQInput{SubsectionID: heating.ID, Question: " "})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	faq, err := s.faq.Create(ctx, s.a, FAQInput{SubsectionID: heating.ID, Question: "Heater broken?", Answer: "Call the warden."})
	require.NoError(t, err)
	assert.Equal(t, s.dept.ID, faq.DepartmentID)

	_, err = s.faq.Update(ctx, s.b, faq.ID, FAQInput{Question: "Mine?", Answer: "No."})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	updated, err := s.faq.Update(ctx, s.a, faq.ID, FAQInput{Question: "Heater not working?", Answer: "Call the warden on 555."})
	require.NoError(t, err)
	assert.Equal(t, heating.ID, updated.SubsectionID)

	mine, err := s.faq.ListMine(ctx, s.a)
	require.NoError(t, err)
	require.Len(t, mine.FAQs, 1)
	assert.Equal(t, "Heating", mine.FAQs[0].SubsectionName)
	assert.Len(t, mine.Subsections, 1)

	assert.True(t, apperrors.HasCode(s.faq.Delete(ctx, s.b, faq.ID), apperrors.CodeForbidden))
	require.NoError(t, s.faq.Delete(ctx, s.a, faq.ID))
}

func TestPublicFAQPages(t *testing.T) {
	s := newAccommodation()
	ctx := context.Background()
	heating := s.store.AddSubsection(s.dept.ID, "Heating")
	rooms := s.store.AddSubsection(s.dept.ID, "Rooms")
	for _, in := range []FAQInput{
		{SubsectionID: rooms.ID, Question: "Can I swap rooms?", Answer: "Ask the office."},
		{SubsectionID: heating.ID, Question: "Boiler schedule?", Answer: "6am to 10pm."},
		{SubsectionID: heating.ID, Question: "Radiator noisy?", Answer: "Bleed it."},
	} {
		_, err := s.faq.Create(ctx, s.a, in)
		require.NoError(t, err)
	}

	depts, err := s.faq.ListDepartments(ctx, firstPage(FAQDepartmentsPageSize))
	require.NoError(t, err)
	assert.Equal(t, int64(2), depts.Total)

	page, err := s.faq.DepartmentFAQ(ctx, "accommodation", firstPage(DepartmentFAQPageSize))
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Groups, 2)
	assert.Equal(t, "Heating", page.Groups[0].Subsection)
	assert.Len(t, page.Groups[0].FAQs, 2)
	assert.Equal(t, "Rooms", page.Groups[1].Subsection)

	_, err = s.faq.DepartmentFAQ(ctx, "nowhere", firstPage(DepartmentFAQPageSize))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
