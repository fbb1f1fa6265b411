package repository

import (
	inquiryRepo "asterias/database/repository/inquiry"
	paymentRepo "asterias/database/repository/payment"
)

// Re-export the InquiryRepository interface and constructor.
type InquiryRepository = inquiryRepo.InquiryRepository

var NewMongoInquiryRepo = inquiryRepo.NewMongoInquiryRepo

// Re-export the PaymentEventRepository interface and constructor.
type PaymentEventRepository = paymentRepo.PaymentEventRepository

var NewMongoPaymentEventRepo = paymentRepo.NewMongoPaymentEventRepo
