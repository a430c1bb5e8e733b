package auth

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Policy", func() {
	policy := NewPolicy()

	regular := &Session{AccountID: "reg", Role: RoleRegular}
	head := &Session{AccountID: "head", Role: RoleDepartmentHead, HeadProjectIDs: []int64{10}}
	admin := &Session{AccountID: "adm", Role: RoleAdmin}

	ownEntry := Resource{Kind: KindTimesheet, OwnerID: "reg", ProjectID: 10}
	otherEntry := Resource{Kind: KindTimesheet, OwnerID: "someone", ProjectID: 10}
	unheadedEntry := Resource{Kind: KindTimesheet, OwnerID: "someone", ProjectID: 11}

	ginkgo.DescribeTable("timesheet access",
		func(s *Session, res Resource, op Operation, want Decision) {
			gomega.Expect(policy.Evaluate(s, res, op)).To(gomega.Equal(want))
		},
		ginkgo.Entry("owner reads own entry", regular, ownEntry, OpRead, Allow),
		ginkgo.Entry("owner deletes own entry", regular, ownEntry, OpDelete, Allow),
		ginkgo.Entry("regular reads another's entry", regular, otherEntry, OpRead, Deny),
		ginkgo.Entry("regular updates another's entry", regular, otherEntry, OpUpdate, Deny),
		ginkgo.Entry("head reads entry in headed project", head, otherEntry, OpRead, Allow),
		ginkgo.Entry("head updates entry in headed project", head, otherEntry, OpUpdate, Allow),
		ginkgo.Entry("head may not delete", head, otherEntry, OpDelete, Deny),
		ginkgo.Entry("head may not insert for others", head, otherEntry, OpInsert, Deny),
		ginkgo.Entry("head reads outside headed project", head, unheadedEntry, OpRead, Deny),
		ginkgo.Entry("admin deletes anything", admin, unheadedEntry, OpDelete, Allow),
		ginkgo.Entry("nil session", (*Session)(nil), ownEntry, OpRead, Deny),
	)

	ginkgo.DescribeTable("profile and notification access",
		func(s *Session, res Resource, op Operation, want Decision) {
			gomega.Expect(policy.Evaluate(s, res, op)).To(gomega.Equal(want))
		},
		ginkgo.Entry("anyone reads profiles", regular, Resource{Kind: KindProfile, OwnerID: "x"}, OpRead, Allow),
		ginkgo.Entry("owner updates own profile", regular, Resource{Kind: KindProfile, OwnerID: "reg"}, OpUpdate, Allow),
		ginkgo.Entry("no updates to other profiles", regular, Resource{Kind: KindProfile, OwnerID: "x"}, OpUpdate, Deny),
		ginkgo.Entry("anyone reads projects", regular, Resource{Kind: KindProject}, OpRead, Allow),
		ginkgo.Entry("regular cannot create projects", regular, Resource{Kind: KindProject}, OpInsert, Deny),
		ginkgo.Entry("head cannot create projects", head, Resource{Kind: KindProject}, OpInsert, Deny),
		ginkgo.Entry("anyone reads heads", regular, Resource{Kind: KindDepartmentHead}, OpRead, Allow),
		ginkgo.Entry("own role is readable", regular, Resource{Kind: KindRole, OwnerID: "reg"}, OpRead, Allow),
		ginkgo.Entry("other roles are not", regular, Resource{Kind: KindRole, OwnerID: "x"}, OpRead, Deny),
		ginkgo.Entry("recipient reads notification", regular, Resource{Kind: KindNotification, OwnerID: "reg"}, OpRead, Allow),
		ginkgo.Entry("recipient marks notification", regular, Resource{Kind: KindNotification, OwnerID: "reg"}, OpUpdate, Allow),
		ginkgo.Entry("callers cannot insert notifications", regular, Resource{Kind: KindNotification, OwnerID: "reg"}, OpInsert, Deny),
		ginkgo.Entry("others cannot read notifications", head, Resource{Kind: KindNotification, OwnerID: "reg"}, OpRead, Deny),
		ginkgo.Entry("admin may do anything", admin, Resource{Kind: KindNotification, OwnerID: "reg"}, OpInsert, Allow),
	)

	ginkgo.It("builds list scopes", func() {
		gomega.Expect(policy.TimesheetScope(admin).All).To(gomega.BeTrue())

		scope := policy.TimesheetScope(head)
		gomega.Expect(scope.All).To(gomega.BeFalse())
		gomega.Expect(scope.OwnerID).To(gomega.Equal("head"))
		gomega.Expect(scope.ProjectIDs).To(gomega.ConsistOf(int64(10)))
	})

	ginkgo.It("gates review on admin or head", func() {
		gomega.Expect(policy.CanReview(admin, 99)).To(gomega.BeTrue())
		gomega.Expect(policy.CanReview(head, 10)).To(gomega.BeTrue())
		gomega.Expect(policy.CanReview(head, 11)).To(gomega.BeFalse())
		gomega.Expect(policy.CanReview(regular, 10)).To(gomega.BeFalse())
	})

	ginkgo.It("returns access denied from Authorize", func() {
		gomega.Expect(policy.Authorize(regular, otherEntry, OpRead)).To(gomega.HaveOccurred())
		gomega.Expect(policy.Authorize(regular, ownEntry, OpRead)).To(gomega.Succeed())
	})
})
