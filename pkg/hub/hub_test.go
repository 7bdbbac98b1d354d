// Copyright 2025 Chitragupta Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hub

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSendDeliversOnlyToAddressedSubscriber(t *testing.T) {
	h := New()
	var gotA, gotB []Envelope
	h.Subscribe("a", "chat", func(e Envelope) { gotA = append(gotA, e) })
	h.Subscribe("b", "chat", func(e Envelope) { gotB = append(gotB, e) })

	h.Send(Envelope{From: "a", To: "b", Topic: "chat", Payload: "hi"})

	if len(gotA) != 0 {
		t.Fatal("sender's own subscription must not receive a directed send")
	}
	if len(gotB) != 1 || gotB[0].Payload != "hi" {
		t.Fatalf("expected b to receive the message, got %v", gotB)
	}
}

func TestBroadcastExcludesSender(t *testing.T) {
	h := New()
	var gotA, gotB, gotC []Envelope
	h.Subscribe("a", "news", func(e Envelope) { gotA = append(gotA, e) })
	h.Subscribe("b", "news", func(e Envelope) { gotB = append(gotB, e) })
	h.Subscribe("c", "news", func(e Envelope) { gotC = append(gotC, e) })

	h.Broadcast("a", "news", "update", PriorityNormal)

	if len(gotA) != 0 {
		t.Fatal("broadcast must never deliver back to sender")
	}
	if len(gotB) != 1 || len(gotC) != 1 {
		t.Fatalf("expected b and c to receive the broadcast, got b=%v c=%v", gotB, gotC)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New()
	var count int
	unsub := h.Subscribe("a", "topic", func(e Envelope) { count++ })

	h.Send(Envelope{From: "x", To: "a", Topic: "topic"})
	unsub()
	h.Send(Envelope{From: "x", To: "a", Topic: "topic"})

	if count != 1 {
		t.Fatalf("want 1 delivery before unsubscribe, got %d", count)
	}
}

func TestRequestReplyRoundTrip(t *testing.T) {
	h := New()
	h.Subscribe("worker", "task", func(e Envelope) {
		h.Reply(e.CorrelationID, "worker", "result:"+e.Payload.(string))
	})

	reply, err := h.Request(context.Background(), "worker", "task", "input", "caller", time.Second)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if reply.Payload != "result:input" {
		t.Fatalf("want %q, got %v", "result:input", reply.Payload)
	}
}

func TestRequestTimesOutWithoutReply(t *testing.T) {
	h := New()
	h.Subscribe("worker", "task", func(e Envelope) {})

	_, err := h.Request(context.Background(), "worker", "task", "input", "caller", 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
}

func TestSharedRegionACL(t *testing.T) {
	h := New()
	region, err := h.CreateRegion("scratch", "owner", []string{"writer"})
	if err != nil {
		t.Fatalf("CreateRegion: %v", err)
	}
	_ = region

	if err := h.Write("scratch", "k", "v", "writer"); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := h.Write("scratch", "k2", "v2", "outsider"); err == nil {
		t.Fatal("expected ACL to reject a non-member writer")
	}

	v, ok := h.Read("scratch", "k", "owner")
	if !ok || v != "v" {
		t.Fatalf("want (v,true), got (%v,%v)", v, ok)
	}
	if _, ok := h.Read("scratch", "k", "outsider"); ok {
		t.Fatal("expected ACL to reject a non-member reader")
	}
}

func TestBarrierReleasesOnceEveryoneArrives(t *testing.T) {
	h := New()
	h.CreateBarrier("phase1", []string{"a", "b", "c"})

	var wg sync.WaitGroup
	results := make(chan error, 3)
	for _, id := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(agentID string) {
			defer wg.Done()
			time.Sleep(5 * time.Millisecond)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			results <- h.ArriveAtBarrier(ctx, "phase1", agentID)
		}(id)
	}
	wg.Wait()
	close(results)
	for err := range results {
		if err != nil {
			t.Fatalf("ArriveAtBarrier: %v", err)
		}
	}
}

func TestBarrierTimesOutIfNotEveryoneArrives(t *testing.T) {
	h := New()
	h.CreateBarrier("phase1", []string{"a", "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := h.ArriveAtBarrier(ctx, "phase1", "a"); err == nil {
		t.Fatal("expected a timeout since b never arrives")
	}
}

func TestCollectorWaitsForExpectedCount(t *testing.T) {
	h := New()
	h.CreateCollector("c1", 2)

	go func() {
		time.Sleep(5 * time.Millisecond)
		h.SubmitResult("c1", "a", 1)
		h.SubmitResult("c1", "b", 2)
	}()

	got, err := h.WaitForAll(context.Background(), "c1", time.Second)
	if err != nil {
		t.Fatalf("WaitForAll: %v", err)
	}
	if got["a"] != 1 || got["b"] != 2 {
		t.Fatalf("unexpected results: %v", got)
	}
}

func TestCollectorTimesOutWhenIncomplete(t *testing.T) {
	h := New()
	h.CreateCollector("c1", 2)
	h.SubmitResult("c1", "a", 1)

	_, err := h.WaitForAll(context.Background(), "c1", 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout since only one of two results arrived")
	}
}

func TestDestroyRejectsPendingRequest(t *testing.T) {
	h := New()
	h.Subscribe("worker", "task", func(e Envelope) {})

	errCh := make(chan error, 1)
	go func() {
		_, err := h.Request(context.Background(), "worker", "task", "input", "caller", time.Second)
		errCh <- err
	}()
	time.Sleep(5 * time.Millisecond)
	h.Destroy()

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatal("expected destroy to reject the pending request")
		}
	case <-time.After(time.Second):
		t.Fatal("Request did not return after Destroy")
	}
}
