package kafka

import "testing"

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope(Message{
		Key:   []byte("demo.myshopify.com"),
		Value: []byte(`{"id":"e1","topic":"orders/create","payload":{"name":"#1"}}`),
	})
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if env.Shop != "demo.myshopify.com" || env.Topic != "orders/create" || string(env.Payload) != `{"name":"#1"}` {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestDecodeEnvelope_Invalid(t *testing.T) {
	cases := map[string]Message{
		"not json":      {Value: []byte(`{`)},
		"missing shop":  {Value: []byte(`{"topic":"orders/create"}`)},
		"missing topic": {Value: []byte(`{"shop":"demo.myshopify.com"}`)},
	}
	for name, m := range cases {
		if _, err := DecodeEnvelope(m); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
