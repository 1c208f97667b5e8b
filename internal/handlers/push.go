package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"

	"github.com/SherClockHolmes/webpush-go"
)

var (
	vapidPrivateKey string
	vapidPublicKey  string
)

func init() {
	vapidPrivateKey = os.Getenv("VAPID_PRIVATE_KEY")
	vapidPublicKey = os.Getenv("VAPID_PUBLIC_KEY")

	if vapidPrivateKey == "" || vapidPublicKey == "" {
		log.Println("VAPID keys not found in environment. Generating new keys...")
		privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			log.Fatal("Failed to generate VAPID keys:", err)
		}
		vapidPrivateKey = privateKey
		vapidPublicKey = publicKey
		log.Printf("Generated VAPID Keys:\nVAPID_PRIVATE_KEY=%s\nVAPID_PUBLIC_KEY=%s\n(Add these to your .env file to persist them)", privateKey, publicKey)
	}
}

// GetVAPIDKeyHandler returns the public VAPID key.
func (h *Handler) GetVAPIDKeyHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": vapidPublicKey})
}

// SubscribePushHandler saves a push subscription for the session's
// identity.
func (h *Handler) SubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, _ := CurrentIdentity(r)

	var req struct {
		Endpoint string `json:"endpoint"`
		Keys     struct {
			P256dh string `json:"p256dh"`
			Auth   string `json:"auth"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.Push.SavePushSubscription(r.Context(), identity, req.Endpoint, req.Keys.P256dh, req.Keys.Auth); err != nil {
		log.Printf("Failed to save subscription: %v", err)
		http.Error(w, "Failed to save subscription", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// SendPushNotification fans a custody alert out to every subscriber.
func (h *Handler) SendPushNotification(message string) {
	subs, err := h.Push.GetPushSubscriptions(context.Background())
	if err != nil {
		log.Printf("Failed to get subscriptions: %v", err)
		return
	}

	for _, sub := range subs {
		s := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.P256dh,
				Auth:   sub.Auth,
			},
		}

		resp, err := webpush.SendNotification([]byte(message), s, &webpush.Options{
			Subscriber:      "mailto:admin@example.com", // Should be configurable
			VAPIDPublicKey:  vapidPublicKey,
			VAPIDPrivateKey: vapidPrivateKey,
			TTL:             30,
		})
		if err != nil {
			log.Printf("Failed to send push to %s: %v", sub.Endpoint, err)
			continue
		}
		resp.Body.Close()
	}
}
