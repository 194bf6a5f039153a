package outreach

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"linkedin-outreach/internal/adapters/cache"
	"linkedin-outreach/internal/adapters/quota"
	"linkedin-outreach/internal/domain"
)

type fakeGenerator struct {
	message string
	tokens  int
	err     error
	calls   int
}

func (f *fakeGenerator) Generate(context.Context, domain.Profile) (string, int, error) {
	f.calls++
	if f.err != nil {
		return "", 0, f.err
	}
	return f.message, f.tokens, nil
}

type fakeMessenger struct {
	err   error
	calls int
}

func (f *fakeMessenger) Send(_ context.Context, profile domain.Profile, message string) (domain.DeliveryReceipt, error) {
	f.calls++
	if f.err != nil {
		return domain.DeliveryReceipt{}, f.err
	}
	return domain.DeliveryReceipt{MessageID: "msg_test", Status: "sent", Recipient: profile.Name, Preview: message}, nil
}

type failingCache struct {
	getErr error
	putErr error
	puts   int
}

func (f *failingCache) Get(context.Context, string) (domain.Icebreaker, bool, error) {
	return domain.Icebreaker{}, false, f.getErr
}

func (f *failingCache) Put(context.Context, domain.Icebreaker) error {
	f.puts++
	return f.putErr
}

type failingQuota struct {
	domain.QuotaTracker
}

func (f *failingQuota) TryReserve(context.Context, string) (bool, error) {
	return false, domain.NewStorageError("бронь квоты", errors.New("redis down"))
}

func testProfile() domain.Profile {
	return domain.Profile{Name: "Jane Doe", Title: "AI Engineer", Company: "Tech Corp", Industry: "Technology", Location: "San Francisco, CA"}
}

func newTestService(gen domain.Generator, msgr domain.Messenger, limit int) (*Service, *quota.Memory) {
	tracker := quota.NewMemory(limit, 0.05)
	svc := NewService(cache.NewMemory(0), tracker, gen, msgr, nil, nil, zerolog.Nop(), 0.005)
	return svc, tracker
}

func TestProcessFreshProfile(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane, impressive work at Tech Corp!", tokens: 50}
	msgr := &fakeMessenger{}
	svc, _ := newTestService(gen, msgr, 50)

	result := svc.Process(context.Background(), testProfile())
	if !result.Success {
		t.Fatalf("ожидали успех, получили ошибку: %v", result.Err)
	}
	if result.Cached {
		t.Fatalf("первый вызов не должен попадать в кэш")
	}
	if result.Cost != 0.00025 {
		t.Fatalf("ожидали стоимость 0.00025, получили %v", result.Cost)
	}
	if result.Remaining != 49 {
		t.Fatalf("ожидали остаток 49, получили %d", result.Remaining)
	}
	if msgr.calls != 1 {
		t.Fatalf("ожидали одну доставку, получили %d", msgr.calls)
	}
	if result.Receipt == nil || result.Receipt.MessageID == "" {
		t.Fatalf("ожидали квитанцию доставки")
	}
}

func TestProcessCacheHit(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane, impressive work at Tech Corp!", tokens: 50}
	msgr := &fakeMessenger{}
	svc, _ := newTestService(gen, msgr, 50)
	ctx := context.Background()

	first := svc.Process(ctx, testProfile())
	if !first.Success {
		t.Fatalf("первый вызов должен быть успешным: %v", first.Err)
	}

	second := svc.Process(ctx, testProfile())
	if !second.Success {
		t.Fatalf("второй вызов должен быть успешным: %v", second.Err)
	}
	if !second.Cached {
		t.Fatalf("второй вызов должен обслуживаться из кэша")
	}
	if second.Cost != 0 {
		t.Fatalf("попадание в кэш не должно стоить денег, получили %v", second.Cost)
	}
	if gen.calls != 1 {
		t.Fatalf("генерация должна была случиться один раз, получили %d", gen.calls)
	}
	// Бронь расходуется на каждую отправку независимо от кэша.
	if second.Remaining != 48 {
		t.Fatalf("ожидали остаток 48, получили %d", second.Remaining)
	}
}

func TestProcessQuotaExceeded(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane!", tokens: 50}
	msgr := &fakeMessenger{}
	svc, tracker := newTestService(gen, msgr, 1)
	ctx := context.Background()

	if ok, _ := tracker.TryReserve(ctx, domain.DayKey(svc.now())); !ok {
		t.Fatalf("подготовка: бронь не должна быть отклонена")
	}

	result := svc.Process(ctx, testProfile())
	if result.Success {
		t.Fatalf("при исчерпанном лимите успех невозможен")
	}
	if !errors.Is(result.Err, domain.ErrQuotaExceeded) {
		t.Fatalf("ожидали ErrQuotaExceeded, получили %v", result.Err)
	}
	if result.Remaining != 0 {
		t.Fatalf("ожидали нулевой остаток, получили %d", result.Remaining)
	}
	if result.Message == "" {
		t.Fatalf("сообщение возвращается для наглядности даже без доставки")
	}
	if msgr.calls != 0 {
		t.Fatalf("доставка не должна вызываться при исчерпанном лимите")
	}
}

func TestProcessGenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("api timeout")}
	msgr := &fakeMessenger{}
	svc, tracker := newTestService(gen, msgr, 50)
	ctx := context.Background()

	result := svc.Process(ctx, testProfile())
	if result.Success {
		t.Fatalf("сбой генерации не может быть успехом")
	}
	var genErr *domain.GenerationError
	if !errors.As(result.Err, &genErr) {
		t.Fatalf("ожидали GenerationError, получили %v", result.Err)
	}
	// Квота не тронута: бронь происходит только после успешной генерации.
	remaining, _ := tracker.Remaining(ctx, domain.DayKey(svc.now()))
	if remaining != 50 {
		t.Fatalf("квота должна остаться нетронутой, остаток %d", remaining)
	}
	if result.Remaining != 50 {
		t.Fatalf("в результате должен быть полный остаток, получили %d", result.Remaining)
	}
	if msgr.calls != 0 {
		t.Fatalf("доставка не должна вызываться после сбоя генерации")
	}
}

func TestProcessDeliveryFailureConsumesSlot(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane!", tokens: 50}
	msgr := &fakeMessenger{err: errors.New("unipile down")}
	svc, tracker := newTestService(gen, msgr, 50)
	ctx := context.Background()

	result := svc.Process(ctx, testProfile())
	if result.Success {
		t.Fatalf("сбой доставки не может быть успехом")
	}
	var delivErr *domain.DeliveryError
	if !errors.As(result.Err, &delivErr) {
		t.Fatalf("ожидали DeliveryError, получили %v", result.Err)
	}
	// Слот остаётся израсходованным: ретраи не должны обходить лимит.
	remaining, _ := tracker.Remaining(ctx, domain.DayKey(svc.now()))
	if remaining != 49 {
		t.Fatalf("бронь не откатывается при сбое доставки, остаток %d", remaining)
	}
}

func TestProcessDegradedCacheRead(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane!", tokens: 50}
	msgr := &fakeMessenger{}
	broken := &failingCache{getErr: domain.NewStorageError("чтение кэша", errors.New("redis down"))}
	tracker := quota.NewMemory(50, 0.05)
	svc := NewService(broken, tracker, gen, msgr, nil, nil, zerolog.Nop(), 0.005)

	result := svc.Process(context.Background(), testProfile())
	if !result.Success {
		t.Fatalf("недоступный кэш не должен валить аутрич: %v", result.Err)
	}
	if gen.calls != 1 {
		t.Fatalf("ошибка чтения кэша трактуется как промах, ожидали генерацию")
	}
	if msgr.calls != 1 {
		t.Fatalf("доставка должна пройти в деградированном режиме")
	}
}

func TestProcessCachePutFailureNonFatal(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane!", tokens: 50}
	msgr := &fakeMessenger{}
	broken := &failingCache{putErr: domain.NewStorageError("запись кэша", errors.New("redis down"))}
	tracker := quota.NewMemory(50, 0.05)
	svc := NewService(broken, tracker, gen, msgr, nil, nil, zerolog.Nop(), 0.005)

	result := svc.Process(context.Background(), testProfile())
	if !result.Success {
		t.Fatalf("сбой записи в кэш не должен валить аутрич: %v", result.Err)
	}
	if broken.puts != 1 {
		t.Fatalf("запись в кэш должна была попытаться выполниться")
	}
}

func TestProcessReserveStorageErrorFatal(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane!", tokens: 50}
	msgr := &fakeMessenger{}
	tracker := &failingQuota{QuotaTracker: quota.NewMemory(50, 0.05)}
	svc := NewService(cache.NewMemory(0), tracker, gen, msgr, nil, nil, zerolog.Nop(), 0.005)

	result := svc.Process(context.Background(), testProfile())
	if result.Success {
		t.Fatalf("без подтверждённой брони отправка запрещена")
	}
	var storErr *domain.StorageError
	if !errors.As(result.Err, &storErr) {
		t.Fatalf("ожидали StorageError, получили %v", result.Err)
	}
	if msgr.calls != 0 {
		t.Fatalf("доставка не должна вызываться без брони")
	}
}

func TestGenerateOnlyDoesNotTouchQuota(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane!", tokens: 50}
	svc, tracker := newTestService(gen, &fakeMessenger{}, 50)
	ctx := context.Background()

	entry, cached, err := svc.GenerateOnly(ctx, testProfile())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if cached {
		t.Fatalf("первый вызов не должен попадать в кэш")
	}
	if entry.Cost != 0.00025 {
		t.Fatalf("ожидали стоимость 0.00025, получили %v", entry.Cost)
	}

	remaining, _ := tracker.Remaining(ctx, domain.DayKey(svc.now()))
	if remaining != 50 {
		t.Fatalf("генерация без отправки не расходует квоту, остаток %d", remaining)
	}

	_, cached, err = svc.GenerateOnly(ctx, testProfile())
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if !cached {
		t.Fatalf("повторный вызов должен обслуживаться из кэша")
	}
	if gen.calls != 1 {
		t.Fatalf("генерация должна была случиться один раз, получили %d", gen.calls)
	}
}

func TestDailyStats(t *testing.T) {
	gen := &fakeGenerator{message: "Hi Jane!", tokens: 50}
	svc, _ := newTestService(gen, &fakeMessenger{}, 50)
	ctx := context.Background()

	if result := svc.Process(ctx, testProfile()); !result.Success {
		t.Fatalf("подготовка: аутрич должен пройти: %v", result.Err)
	}

	stats, err := svc.DailyStats(ctx)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if stats.Sent != 1 {
		t.Fatalf("ожидали одну отправку, получили %d", stats.Sent)
	}
	if stats.Remaining != 49 {
		t.Fatalf("ожидали остаток 49, получили %d", stats.Remaining)
	}
	if stats.EstimatedCost != 0.00025 {
		t.Fatalf("ожидали учтённую стоимость 0.00025, получили %v", stats.EstimatedCost)
	}
}
