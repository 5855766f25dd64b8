// Package client provides the authenticated Langfuse public API client used
// by the annotator.
//
// A Client bundles the endpoint clients from pkg/api behind one transport
// that handles Basic authentication, retries, an optional circuit breaker
// and request hooks:
//
//	c, err := client.New(client.Config{
//	    PublicKey: "pk-lf-xxx",
//	    SecretKey: "sk-lf-xxx",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	queue, err := c.AnnotationQueues().Get(ctx, "queue-id")
//
// Score writes go through ScoreQueue, which authenticates with the public
// key only.
package client
