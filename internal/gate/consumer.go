package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"city_parking/internal/config"
	"city_parking/internal/domain"
	"city_parking/internal/service"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Event là message JSON do thiết bị cổng đẩy lên queue khi xe vào/ra.
type Event struct {
	EventType      string `json:"event_type"` // "vehicle_entry" hoặc "vehicle_exit"
	Plate          string `json:"plate"`
	VehicleClass   string `json:"vehicle_class"`
	PreferredLevel *int   `json:"preferred_level,omitempty"`
	Timestamp      string `json:"timestamp,omitempty"` // RFC3339; chỉ dùng cho vehicle_exit
}

type SQSConsumer struct {
	sqsClient      *sqs.Client
	queueURL       string
	parkingService *service.ParkingService
}

func NewSQSConsumer(client *sqs.Client, cfg *config.Config, parkingService *service.ParkingService) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:      client,
		queueURL:       cfg.SQSGateQueueURL,
		parkingService: parkingService,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	log.Printf("Gate Consumer đang bắt đầu lắng nghe queue: %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Println("Gate Consumer: context cancelled, stopping.")
			return
		default:
			receiveInput := &sqs.ReceiveMessageInput{
				QueueUrl:            &c.queueURL,
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			}

			result, err := c.sqsClient.ReceiveMessage(ctx, receiveInput)
			if err != nil {
				log.Printf("Gate Consumer: Lỗi khi nhận message: %v", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					log.Println("Gate Consumer: context cancelled while waiting for retry.")
					return
				}
				continue
			}

			if len(result.Messages) == 0 {
				continue
			}

			log.Printf("Gate Consumer: Đã nhận %d message(s)", len(result.Messages))

			for _, message := range result.Messages {
				if message.Body == nil {
					log.Println("Gate Consumer: Nhận được message với body rỗng. Đang xóa...")
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}

				processingErr := c.handleGateEvent(ctx, *message.Body)
				if processingErr == nil || isTerminal(processingErr) {
					if processingErr != nil {
						log.Printf("Gate Consumer: Lỗi nghiệp vụ không thể retry: %v. Đang xóa message.", processingErr)
					}
					c.deleteMessage(ctx, message.ReceiptHandle)
				} else {
					log.Printf("Gate Consumer: Lỗi khi xử lý message ID %s: %v. Message sẽ được xử lý lại sau visibility timeout.", *message.MessageId, processingErr)
				}
			}
		}
	}
}

func (c *SQSConsumer) handleGateEvent(ctx context.Context, body string) error {
	var event Event
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return fmt.Errorf("%w: không parse được message: %v", errBadEvent, err)
	}

	switch event.EventType {
	case "vehicle_entry":
		result, err := c.parkingService.CheckIn(ctx, domain.CheckInDTO{
			Plate:          event.Plate,
			VehicleClass:   event.VehicleClass,
			PreferredLevel: event.PreferredLevel,
		})
		if err != nil {
			return fmt.Errorf("lỗi check-in từ cổng cho xe '%s': %w", event.Plate, err)
		}
		log.Printf("Gate Consumer: Xe '%s' vào bãi, được gán chỗ %s", event.Plate, result.Spot.Label())
		return nil
	case "vehicle_exit":
		settlement, err := c.parkingService.CheckOut(ctx, domain.CheckOutDTO{
			Plate:        event.Plate,
			CheckoutTime: event.Timestamp,
		})
		if err != nil {
			return fmt.Errorf("lỗi check-out từ cổng cho xe '%s': %w", event.Plate, err)
		}
		log.Printf("Gate Consumer: Xe '%s' ra bãi, phí %.2f (biên nhận %s)", event.Plate, settlement.TotalAmount, settlement.ReceiptNumber)
		return nil
	default:
		return fmt.Errorf("%w: loại sự kiện không hỗ trợ '%s'", errBadEvent, event.EventType)
	}
}

var errBadEvent = errors.New("gate event không hợp lệ")

// isTerminal phân loại lỗi nghiệp vụ mà việc retry không bao giờ cứu được:
// message hỏng, biển số sai, xe đã/chưa ở trong bãi. Các lỗi còn lại (mất
// kết nối DB, hết chỗ tạm thời) để message quay lại queue.
func isTerminal(err error) bool {
	return errors.Is(err, errBadEvent) ||
		errors.Is(err, service.ErrInvalidPlate) ||
		errors.Is(err, service.ErrAlreadyParked) ||
		errors.Is(err, service.ErrNotParked) ||
		errors.Is(err, service.ErrInvalidCheckoutTime)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		log.Println("Gate Consumer: Receipt handle rỗng, không thể xóa message.")
		return
	}
	if _, delErr := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	}); delErr != nil {
		log.Printf("Gate Consumer: Lỗi khi xóa message: %v", delErr)
	}
}
