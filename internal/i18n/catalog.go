package i18n

var catalogs = map[string]map[string]string{
	"uz": {
		"error.structural": "Shablon bilan ishlashda xatolik",
		"error.data":       "Ma'lumotlar formati noto'g'ri",
		"error.timeout":    "Kutish vaqti tugadi",
		"error.transport":  "Printega ulanishda xatolik yuz berdi",
		"error.device":     "Printer qurilmasi xatosi",

		"template.missing":             "Shablon topilmadi",
		"template.not_object":          "Shablon formati noto'g'ri",
		"template.segments_not_array":  "Shablon segmentlari noto'g'ri formatda",
		"template.segments_empty":      "Shablon bo'sh, hech qanday segment yo'q",
		"template.no_content":          "Shablon mazmuni yo'q",
		"template.nested_blocks":       "Segment %d: ichma-ich shartli bloklar qo'llab-quvvatlanmaydi",
		"segment.invalid":              "Segment %d noto'g'ri formatda",
		"segment.content_not_string":   "Segment %d mazmuni matn bo'lishi kerak",
		"segment.settings_not_object":  "Segment %d sozlamalari noto'g'ri",
		"data.not_object":              "Shablon uchun ma'lumotlar yo'q",
		"data.missing_fields":          "Majburiy ma'lumotlar etishmayapti: %s",
		"printer.ip_missing":           "Printer IP manzili sozlamalarda ko'rsatilmagan",
		"printer.ip_invalid":           "IP manzil formati noto'g'ri",
		"printer.timeout":              "%s %dms ichida bajarilmadi",
		"render.ok":                    "Chek muvaffaqiyatli tayyorlandi",
		"render.no_printable":          "Shartsiz segmentlarda chop etiladigan matn yo'q",
		"render.all_conditional_empty": "Barcha segmentlar shartli va bo'sh",
		"render.no_content":            "Qayta ishlangandan keyin mazmun qolmadi",

		"label.item":           "Mahsulot",
		"label.branch":         "Asosiy filial",
		"label.client_unknown": "Mijoz ko'rsatilmagan",

		"status.new":         "Yangi",
		"status.pending":     "Kutilmoqda",
		"status.in_progress": "Jarayonda",
		"status.ready":       "Tayyor",
		"status.completed":   "Yakunlandi",
		"status.cancelled":   "Bekor qilindi",
		"payment.cash":       "Naqd",
		"payment.card":       "Karta",
		"payment.transfer":   "O'tkazma",
		"payment.mixed":      "Aralash",
		"payment.debt":       "Nasiya",
	},
	"ru": {
		"error.structural": "Ошибка при работе с шаблоном",
		"error.data":       "Неверный формат данных",
		"error.timeout":    "Время ожидания истекло",
		"error.transport":  "Ошибка подключения к принтеру",
		"error.device":     "Ошибка устройства принтера",

		"template.missing":             "Шаблон не найден",
		"template.not_object":          "Неверный формат шаблона",
		"template.segments_not_array":  "Сегменты шаблона в неверном формате",
		"template.segments_empty":      "Шаблон пуст, сегментов нет",
		"template.no_content":          "У шаблона нет содержимого",
		"template.nested_blocks":       "Сегмент %d: вложенные условные блоки не поддерживаются",
		"segment.invalid":              "Сегмент %d в неверном формате",
		"segment.content_not_string":   "Содержимое сегмента %d должно быть текстом",
		"segment.settings_not_object":  "Настройки сегмента %d неверны",
		"data.not_object":              "Нет данных для шаблона",
		"data.missing_fields":          "Не хватает обязательных данных: %s",
		"printer.ip_missing":           "IP-адрес принтера не указан в настройках",
		"printer.ip_invalid":           "Неверный формат IP-адреса",
		"printer.timeout":              "%s не выполнено за %dмс",
		"render.ok":                    "Чек успешно подготовлен",
		"render.no_printable":          "В безусловных сегментах нет печатаемого текста",
		"render.all_conditional_empty": "Все сегменты условные и пустые",
		"render.no_content":            "После обработки не осталось содержимого",

		"label.item":           "Товар",
		"label.branch":         "Основной филиал",
		"label.client_unknown": "Клиент не указан",

		"status.new":         "Новый",
		"status.pending":     "Ожидает",
		"status.in_progress": "В работе",
		"status.ready":       "Готов",
		"status.completed":   "Завершён",
		"status.cancelled":   "Отменён",
		"payment.cash":       "Наличные",
		"payment.card":       "Карта",
		"payment.transfer":   "Перевод",
		"payment.mixed":      "Смешанная",
		"payment.debt":       "В долг",
	},
	"en": {
		"error.structural": "Template error",
		"error.data":       "Invalid data format",
		"error.timeout":    "The operation timed out",
		"error.transport":  "Could not connect to the printer",
		"error.device":     "Printer device error",

		"template.missing":             "Template not found",
		"template.not_object":          "Template format is invalid",
		"template.segments_not_array":  "Template segments are in an invalid format",
		"template.segments_empty":      "Template is empty, it has no segments",
		"template.no_content":          "Template has no content",
		"template.nested_blocks":       "Segment %d: nested conditional blocks are not supported",
		"segment.invalid":              "Segment %d has an invalid format",
		"segment.content_not_string":   "Segment %d content must be text",
		"segment.settings_not_object":  "Segment %d settings are invalid",
		"data.not_object":              "No data for the template",
		"data.missing_fields":          "Required data is missing: %s",
		"printer.ip_missing":           "Printer IP address is not configured",
		"printer.ip_invalid":           "IP address format is invalid",
		"printer.timeout":              "%s did not finish within %dms",
		"render.ok":                    "Receipt prepared successfully",
		"render.no_printable":          "Non-conditional segments have no printable content",
		"render.all_conditional_empty": "All segments are conditional and empty",
		"render.no_content":            "No content left after processing",

		"label.item":           "Item",
		"label.branch":         "Main branch",
		"label.client_unknown": "No client",

		"status.new":         "New",
		"status.pending":     "Pending",
		"status.in_progress": "In progress",
		"status.ready":       "Ready",
		"status.completed":   "Completed",
		"status.cancelled":   "Cancelled",
		"payment.cash":       "Cash",
		"payment.card":       "Card",
		"payment.transfer":   "Transfer",
		"payment.mixed":      "Mixed",
		"payment.debt":       "On credit",
	},
}
