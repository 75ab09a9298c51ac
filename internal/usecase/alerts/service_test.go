package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"boss-assistant/internal/adapters/ranker"
	"boss-assistant/internal/domain"
)

type fakeSubs struct {
	subs    []domain.Subscriber
	listErr error
}

func (f *fakeSubs) UpsertSubscriber(_ context.Context, sub domain.Subscriber) (domain.Subscriber, error) {
	return sub, nil
}

func (f *fakeSubs) ListSubscribers(context.Context) ([]domain.Subscriber, error) {
	return f.subs, f.listErr
}

type fakeNotifier struct {
	sent    map[int64]string
	failFor int64
}

func newFakeNotifier() *fakeNotifier { return &fakeNotifier{sent: map[int64]string{}} }

func (f *fakeNotifier) SendAlert(_ context.Context, chatID int64, text string) error {
	if chatID == f.failFor {
		return errors.New("chat not found")
	}
	f.sent[chatID] = text
	return nil
}

func freshPolicies() []domain.Policy {
	now := time.Now()
	return []domain.Policy{
		{Title: "인천 소상공인 지원금 신청 안내", Category: "지원금", URL: "https://n/1", PublishedAt: &now},
		{Title: "부산 소상공인 지원금 신청 안내", Category: "지원금", URL: "https://n/2", PublishedAt: &now},
	}
}

func TestDispatchPersonalizesPerSubscriber(t *testing.T) {
	subs := &fakeSubs{subs: []domain.Subscriber{
		{ChatID: 100, Profile: domain.UserProfile{BusinessType: "음식점", Location: "인천", Interests: []string{"지원금"}}},
		{ChatID: 200, Profile: domain.UserProfile{BusinessType: "소매업", Location: "부산", Interests: []string{"지원금"}}},
	}}
	notifier := newFakeNotifier()
	svc := New(subs, ranker.NewKeyword(), notifier, zerolog.Nop(), 3)

	if err := svc.Dispatch(context.Background(), freshPolicies()); err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
	if !strings.Contains(notifier.sent[100], "인천") || strings.Contains(notifier.sent[100], "부산") {
		t.Fatalf("인천 구독자에게는 인천 소식만 가야 합니다: %q", notifier.sent[100])
	}
	if !strings.Contains(notifier.sent[200], "부산") || strings.Contains(notifier.sent[200], "인천") {
		t.Fatalf("부산 구독자에게는 부산 소식만 가야 합니다: %q", notifier.sent[200])
	}
	if !strings.Contains(notifier.sent[100], "[음식점 사장님 맞춤]") {
		t.Fatalf("업종 호칭이 들어가야 합니다: %q", notifier.sent[100])
	}
}

func TestDispatchContinuesAfterSendFailure(t *testing.T) {
	subs := &fakeSubs{subs: []domain.Subscriber{
		{ChatID: 100, Profile: domain.UserProfile{Location: domain.NationwideLocation}},
		{ChatID: 200, Profile: domain.UserProfile{Location: domain.NationwideLocation}},
	}}
	notifier := newFakeNotifier()
	notifier.failFor = 100
	svc := New(subs, ranker.NewKeyword(), notifier, zerolog.Nop(), 3)

	if err := svc.Dispatch(context.Background(), freshPolicies()); err != nil {
		t.Fatalf("개별 실패는 에러로 전파되면 안 됩니다: %v", err)
	}
	if _, ok := notifier.sent[200]; !ok {
		t.Fatalf("다음 구독자에게는 계속 보내야 합니다")
	}
}

func TestDispatchSkipsSubscriberWithNoMatches(t *testing.T) {
	subs := &fakeSubs{subs: []domain.Subscriber{
		{ChatID: 100, Profile: domain.UserProfile{Location: "제주"}},
	}}
	notifier := newFakeNotifier()
	svc := New(subs, ranker.NewKeyword(), notifier, zerolog.Nop(), 3)

	if err := svc.Dispatch(context.Background(), freshPolicies()); err != nil {
		t.Fatalf("에러가 없어야 합니다: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("맞는 항목이 없으면 보내지 않아야 합니다: %v", notifier.sent)
	}
}

func TestDispatchListErrorPropagates(t *testing.T) {
	subs := &fakeSubs{listErr: errors.New("connection refused")}
	svc := New(subs, ranker.NewKeyword(), newFakeNotifier(), zerolog.Nop(), 3)

	if err := svc.Dispatch(context.Background(), freshPolicies()); err == nil {
		t.Fatalf("구독자 조회 실패는 에러로 전파돼야 합니다")
	}
}

func TestDispatchEmptyPoliciesIsNoop(t *testing.T) {
	notifier := newFakeNotifier()
	svc := New(&fakeSubs{subs: []domain.Subscriber{{ChatID: 100}}}, ranker.NewKeyword(), notifier, zerolog.Nop(), 3)

	if err := svc.Dispatch(context.Background(), nil); err != nil {
		t.Fatalf("빈 목록은 조용히 끝나야 합니다: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("보낸 알림이 없어야 합니다")
	}
}
